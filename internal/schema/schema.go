// Package schema holds the form definition shared by the editor, the public
// renderer and the response exporter. Stored schema text is loosely shaped
// (it comes straight from a language model or an older editor), so every
// consumer goes through Parse, which maps all known key spellings onto the
// canonical types below.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultTitle = "Untitled Form"

// Kind is the closed set of field variants. Anything unrecognised renders
// and exports as KindText.
type Kind int

const (
	KindText Kind = iota
	KindDigits
	KindCheckbox
	KindRadioGroup
	KindSelect
	KindCalendar
)

func (k Kind) String() string {
	switch k {
	case KindDigits:
		return "digits"
	case KindCheckbox:
		return "checkbox"
	case KindRadioGroup:
		return "radiogroup"
	case KindSelect:
		return "select"
	case KindCalendar:
		return "calendar"
	default:
		return "text"
	}
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Field struct {
	Name        string   `json:"fieldName"`
	Label       string   `json:"formLabel"`
	Placeholder string   `json:"placeholderName,omitempty"`
	Type        string   `json:"fieldType"`
	Required    bool     `json:"fieldRequired"`
	Options     []Option `json:"options,omitempty"`
}

type Form struct {
	Title      string  `json:"formTitle,omitempty"`
	Subheading string  `json:"formSubheading,omitempty"`
	Fields     []Field `json:"fields"`
}

// Kind resolves the stored type tag. The tag itself is kept verbatim so a
// round trip through the editor does not rewrite what the generator chose.
func (f Field) Kind() Kind {
	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case "digits", "number", "numeric":
		return KindDigits
	case "checkbox", "checkboxes":
		return KindCheckbox
	case "radiogroup", "radio", "radiogroupitem", "radio-group":
		return KindRadioGroup
	case "select", "dropdown":
		return KindSelect
	case "calendar", "date":
		return KindCalendar
	default:
		return KindText
	}
}

// InputType is the HTML input type used by the text strategy.
func (f Field) InputType() string {
	if f.Kind() == KindDigits {
		return "number"
	}
	switch t := strings.ToLower(strings.TrimSpace(f.Type)); t {
	case "email", "tel", "url", "password", "time":
		return t
	}
	return "text"
}

// OptionLabel maps a stored option value back to its display label.
func (f Field) OptionLabel(value string) (string, bool) {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

func (f *Form) DisplayTitle() string {
	if strings.TrimSpace(f.Title) == "" {
		return DefaultTitle
	}
	return f.Title
}

// DuplicateNames lists every fieldName that appears more than once. Duplicates
// are tolerated; later fields shadow earlier ones in response records.
func (f *Form) DuplicateNames() []string {
	seen := make(map[string]int, len(f.Fields))
	var dups []string
	for _, field := range f.Fields {
		seen[field.Name]++
		if seen[field.Name] == 2 {
			dups = append(dups, field.Name)
		}
	}
	return dups
}

func (f *Form) Clone() *Form {
	out := &Form{
		Title:      f.Title,
		Subheading: f.Subheading,
		Fields:     make([]Field, len(f.Fields)),
	}
	for i, field := range f.Fields {
		out.Fields[i] = field
		if field.Options != nil {
			out.Fields[i].Options = append([]Option(nil), field.Options...)
		}
	}
	return out
}

// Serialize writes the canonical spelling of every key.
func Serialize(f *Form) (string, error) {
	doc := *f
	if doc.Fields == nil {
		doc.Fields = []Field{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to serialize form schema: %w", err)
	}
	return string(b), nil
}
