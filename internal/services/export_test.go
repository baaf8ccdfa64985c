package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
	"github.com/dhanavadh/aiform-backend/internal/export"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
)

func TestExportBuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)

	svc := NewExportService(f.db, export.New(nil), nil)

	_, err = svc.Build(ctx, rec.ID, owner)
	assert.ErrorIs(t, err, errorz.ErrEmptyExport, "no responses yet")

	_, err = f.responses.Submit(ctx, rec.ID, "", `{"attend":"y","name":"Ada"}`)
	require.NoError(t, err)
	_, err = f.responses.Submit(ctx, rec.ID, "", `garbage`)
	require.NoError(t, err)

	artifact, err := svc.Build(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "RSVP.xlsx", artifact.Filename)
	assert.Equal(t, 1, artifact.Table.Dropped)
	assert.Equal(t, []map[string]string{{"Attending?": "Yes", "Name": "Ada"}}, artifact.Table.Records())

	book, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Attending?", "Name"}, {"Yes", "Ada"}}, rows)

	_, err = svc.Build(ctx, rec.ID, "intruder@example.com")
	assert.ErrorIs(t, err, errorz.ErrNotFound)

	_, err = svc.Build(ctx, rec.ID, "")
	assert.NoError(t, err, "offline export skips the owner check")
}

func TestExportSingleUnparseableResponse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)
	_, err = f.responses.Submit(ctx, rec.ID, "", `{not json`)
	require.NoError(t, err)

	_, err = NewExportService(f.db, export.New(nil), nil).Build(ctx, rec.ID, owner)
	assert.ErrorIs(t, err, errorz.ErrEmptyExport)
}

func TestExportUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)
	_, err = f.responses.Submit(ctx, rec.ID, "", `{"attend":"n"}`)
	require.NoError(t, err)

	uploader := &fakeUploader{}
	svc := NewExportService(f.db, export.New(nil), uploader)

	artifact, err := svc.Build(ctx, rec.ID, owner)
	require.NoError(t, err)

	url, err := svc.Upload(ctx, rec.ID, artifact)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://storage.example/exports/"))
	require.Len(t, uploader.objects, 1)
	for name, data := range uploader.objects {
		assert.True(t, strings.HasSuffix(name, "_RSVP.xlsx"))
		assert.Equal(t, artifact.Data, data)
	}

	_, err = NewExportService(f.db, export.New(nil), nil).Upload(ctx, rec.ID, artifact)
	assert.Error(t, err)
}

func TestExportSchemaWithoutFieldList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := gormmodels.FormRecord{JSONForm: `{"formTitle":"no fields"}`, CreatedBy: owner}
	require.NoError(t, f.db.Create(&rec).Error)
	_, err := f.responses.Submit(ctx, rec.ID, "", `{"attend":"y"}`)
	require.NoError(t, err)

	_, err = NewExportService(f.db, export.New(nil), nil).Build(ctx, rec.ID, owner)
	assert.ErrorIs(t, err, errorz.ErrEmptyExport)
	assert.ErrorIs(t, err, errorz.ErrMalformedSchema)
}

func TestExportUploadRemovesUnsignedObject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.forms.CreateFromDescription(ctx, owner, "x")
	require.NoError(t, err)
	_, err = f.responses.Submit(ctx, rec.ID, "", `{"attend":"y"}`)
	require.NoError(t, err)

	uploader := &fakeUploader{signErr: errors.New("no signing key")}
	svc := NewExportService(f.db, export.New(nil), uploader)
	artifact, err := svc.Build(ctx, rec.ID, owner)
	require.NoError(t, err)

	_, err = svc.Upload(ctx, rec.ID, artifact)
	assert.ErrorContains(t, err, "no signing key")
	assert.Empty(t, uploader.objects)
}
