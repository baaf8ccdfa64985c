package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhanavadh/aiform-backend/internal/editor"
	"github.com/dhanavadh/aiform-backend/internal/errorz"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
	"github.com/dhanavadh/aiform-backend/internal/schema"
)

const owner = "owner@example.com"

func TestQuotaBlocksFourthForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		_, err := f.forms.CreateFromDescription(ctx, owner, "party")
		require.NoError(t, err)
	}
	_, err := f.forms.CreateFromDescription(ctx, owner, "party")
	require.NoError(t, err, "an account with 2 forms may create a 3rd")

	_, err = f.forms.CreateFromDescription(ctx, owner, "party")
	assert.ErrorIs(t, err, errorz.ErrQuotaExceeded)
	assert.Equal(t, 3, f.gen.calls, "generator is not called once the quota is hit")

	require.NoError(t, f.accounts.MarkPaid(ctx, owner))
	_, err = f.forms.CreateFromDescription(ctx, owner, "party")
	assert.NoError(t, err, "paid accounts are not capped")
}

func TestCreateStoresGeneratedTextVerbatim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.text = "```json\n{\"formTitle\":\"Loose\",\"formFields\":[]}\n```"

	rec, err := f.forms.CreateFromDescription(ctx, owner, "anything")
	require.NoError(t, err)
	assert.Equal(t, f.gen.text, rec.JSONForm)
	assert.Equal(t, owner, rec.CreatedBy)
	assert.Equal(t, 1, rec.Version)

	f.gen.text = "not json at all"
	rec, err = f.forms.CreateFromDescription(ctx, owner, "anything")
	require.NoError(t, err, "unparseable output is stored anyway")
	assert.Equal(t, "not json at all", rec.JSONForm)
}

func TestCreateGeneratorFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = fmt.Errorf("%w: upstream 500", errorz.ErrGeneration)

	_, err := f.forms.CreateFromDescription(context.Background(), owner, "x")
	assert.ErrorIs(t, err, errorz.ErrGeneration)

	var count int64
	f.db.Model(&gormmodels.FormRecord{}).Count(&count)
	assert.Zero(t, count)
}

func TestListByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.forms.CreateFromDescription(ctx, owner, "a")
	require.NoError(t, err)
	f.gen.text = "{broken"
	second, err := f.forms.CreateFromDescription(ctx, owner, "b")
	require.NoError(t, err)
	f.gen.text = rsvpSchema
	_, err = f.forms.CreateFromDescription(ctx, "someone@else.com", "c")
	require.NoError(t, err)

	_, err = f.responses.Submit(ctx, first.ID, "", `{"attend":"y"}`)
	require.NoError(t, err)
	_, err = f.responses.Submit(ctx, first.ID, "", `{"attend":"n"}`)
	require.NoError(t, err)

	list, err := f.forms.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, second.ID, list[0].Record.ID, "newest first")
	assert.False(t, list[0].Available)

	assert.Equal(t, first.ID, list[1].Record.ID)
	assert.True(t, list[1].Available)
	assert.Equal(t, "RSVP", list[1].Title)
	assert.Equal(t, int64(2), list[1].ResponseCount)
}

func TestOverwriteSchema(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)

	_, err = f.forms.OverwriteSchema(ctx, rec.ID, owner, `{"formTitle":"nothing"}`, nil)
	assert.ErrorIs(t, err, errorz.ErrMalformedSchema)

	legacy := `{"formTitle":"New","form":[{"formField":"q","label":"Question","type":"text"}]}`
	updated, err := f.forms.OverwriteSchema(ctx, rec.ID, owner, legacy, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	form, err := schema.Parse(updated.JSONForm)
	require.NoError(t, err)
	assert.Equal(t, "Question", form.Fields[0].Label)
	assert.Contains(t, updated.JSONForm, `"formLabel":"Question"`, "stored in canonical keys")

	stale := 1
	_, err = f.forms.OverwriteSchema(ctx, rec.ID, owner, rsvpSchema, &stale)
	assert.ErrorIs(t, err, errorz.ErrVersionConflict)

	current := 2
	updated, err = f.forms.OverwriteSchema(ctx, rec.ID, owner, rsvpSchema, &current)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)

	_, err = f.forms.OverwriteSchema(ctx, rec.ID, "intruder@example.com", rsvpSchema, nil)
	assert.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestEditField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)

	_, err = f.forms.EditField(ctx, rec.ID, owner, 1, editor.Edit{Label: "  ", Placeholder: "hint"})
	assert.ErrorIs(t, err, errorz.ErrEmptyEdit)

	unchanged, err := f.forms.GetOwned(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, rsvpSchema, unchanged.JSONForm, "rejected edits leave the schema untouched")

	_, err = f.forms.EditField(ctx, rec.ID, owner, 5, editor.Edit{Label: "a", Placeholder: "b"})
	assert.ErrorIs(t, err, errorz.ErrFieldIndex)

	updated, err := f.forms.EditField(ctx, rec.ID, owner, 1, editor.Edit{Label: " Full name ", Placeholder: "First Last"})
	require.NoError(t, err)
	form, err := schema.Parse(updated.JSONForm)
	require.NoError(t, err)
	require.Len(t, form.Fields, 2)
	assert.Equal(t, "Full name", form.Fields[1].Label)
	assert.Equal(t, "First Last", form.Fields[1].Placeholder)
	assert.Equal(t, "name", form.Fields[1].Name, "field names never change")
	assert.Equal(t, "Attending?", form.Fields[0].Label)
}

func TestDeleteField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)

	_, err = f.forms.DeleteField(ctx, rec.ID, owner, 0, false)
	assert.ErrorIs(t, err, errorz.ErrConfirmationRequired)

	updated, err := f.forms.DeleteField(ctx, rec.ID, owner, 0, true)
	require.NoError(t, err)
	form, err := schema.Parse(updated.JSONForm)
	require.NoError(t, err)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, "name", form.Fields[0].Name)
}

func TestEditOnMalformedStoredSchema(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.text = "{broken"
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)

	_, err = f.forms.EditField(ctx, rec.ID, owner, 0, editor.Edit{Label: "a", Placeholder: "b"})
	assert.ErrorIs(t, err, errorz.ErrMalformedSchema)
}

func TestUpdateStyle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)

	updated, err := f.forms.UpdateStyle(ctx, rec.ID, owner, Style{
		Theme:         "dark",
		Background:    "linear-gradient(#fff,#000)",
		Style:         `{"key":"border","value":"2px dashed black"}`,
		EnabledSignIn: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Theme)
	assert.True(t, updated.EnabledSignIn)

	updated, err = f.forms.UpdateStyle(ctx, rec.ID, owner, Style{})
	require.NoError(t, err)
	assert.Empty(t, updated.Theme, "style is overwritten as a whole")
	assert.False(t, updated.EnabledSignIn)
	assert.Equal(t, rsvpSchema, updated.JSONForm)
}

func TestDeleteCascades(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d responses", n), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			require.NoError(t, f.accounts.MarkPaid(ctx, owner))

			target, err := f.forms.CreateFromDescription(ctx, owner, "x")
			require.NoError(t, err)
			other, err := f.forms.CreateFromDescription(ctx, owner, "y")
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				_, err := f.responses.Submit(ctx, target.ID, "", `{"attend":"y"}`)
				require.NoError(t, err)
			}
			_, err = f.responses.Submit(ctx, other.ID, "", `{"attend":"n"}`)
			require.NoError(t, err)

			_, err = f.forms.Delete(ctx, target.ID, "intruder@example.com")
			require.ErrorIs(t, err, errorz.ErrNotFound)

			removed, err := f.forms.Delete(ctx, target.ID, owner)
			require.NoError(t, err)
			assert.Equal(t, int64(n), removed)

			var left int64
			f.db.Model(&gormmodels.ResponseRecord{}).Where("form_reference = ?", target.ID).Count(&left)
			assert.Zero(t, left)

			_, err = f.forms.GetByID(ctx, target.ID)
			assert.True(t, errors.Is(err, errorz.ErrNotFound))

			kept, err := f.responses.ListByForm(ctx, other.ID)
			require.NoError(t, err)
			assert.Len(t, kept, 1, "other forms keep their responses")
		})
	}
}
