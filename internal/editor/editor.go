// Package editor produces label/placeholder edits and field removals for a
// form schema. It never persists anything; callers overwrite the whole
// stored schema with the result.
package editor

import (
	"fmt"
	"strings"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
	"github.com/dhanavadh/aiform-backend/internal/schema"
)

const DeletePrompt = "Are you absolutely sure? This action cannot be undone. This will permanently delete this field."

type Edit struct {
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
}

// Validate trims both values and rejects the edit if either ends up empty.
func (e Edit) Validate() (Edit, error) {
	out := Edit{
		Label:       strings.TrimSpace(e.Label),
		Placeholder: strings.TrimSpace(e.Placeholder),
	}
	if out.Label == "" || out.Placeholder == "" {
		return e, errorz.ErrEmptyEdit
	}
	return out, nil
}

// Surface is the editing popover for one field. A rejected confirm leaves it
// open with the typed values intact.
type Surface struct {
	Index       int
	Label       string
	Placeholder string
	Open        bool
}

func OpenSurface(form *schema.Form, index int) (*Surface, error) {
	if err := checkIndex(form, index); err != nil {
		return nil, err
	}
	f := form.Fields[index]
	return &Surface{Index: index, Label: f.Label, Placeholder: f.Placeholder, Open: true}, nil
}

func (s *Surface) Confirm(label, placeholder string) (Edit, error) {
	s.Label, s.Placeholder = label, placeholder
	edit, err := Edit{Label: label, Placeholder: placeholder}.Validate()
	if err != nil {
		return Edit{}, err
	}
	s.Open = false
	return edit, nil
}

// ApplyEdit returns a copy of form with the field at index relabelled.
// fieldName is left untouched since responses reference it.
func ApplyEdit(form *schema.Form, index int, e Edit) (*schema.Form, error) {
	edit, err := e.Validate()
	if err != nil {
		return nil, err
	}
	if err := checkIndex(form, index); err != nil {
		return nil, err
	}
	out := form.Clone()
	out.Fields[index].Label = edit.Label
	out.Fields[index].Placeholder = edit.Placeholder
	return out, nil
}

// DeleteField returns a copy of form without the field at index. The caller
// must have shown DeletePrompt and passed confirmed=true.
func DeleteField(form *schema.Form, index int, confirmed bool) (*schema.Form, error) {
	if err := checkIndex(form, index); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, errorz.ErrConfirmationRequired
	}
	out := form.Clone()
	out.Fields = append(out.Fields[:index], out.Fields[index+1:]...)
	return out, nil
}

func checkIndex(form *schema.Form, index int) error {
	if index < 0 || index >= len(form.Fields) {
		return fmt.Errorf("%w: %d of %d", errorz.ErrFieldIndex, index, len(form.Fields))
	}
	return nil
}
