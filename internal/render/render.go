// Package render turns a normalized form schema into an HTML form and
// collects what respondents post back.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/dhanavadh/aiform-backend/internal/schema"
)

//go:embed templates/*.html
var tplFS embed.FS

var tpl = template.Must(template.ParseFS(tplFS, "templates/*.html"))

type Mode struct {
	Editable           bool
	RequireSignIn      bool
	SubmissionDisabled bool
}

// Style is the border/shadow choice stored on a form record as a small JSON
// object, e.g. {"key":"border","value":"2px dashed black"}.
type Style struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func ParseStyle(raw string) Style {
	var s Style
	if strings.TrimSpace(raw) == "" {
		return s
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Style{}
	}
	return s
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

type Notice struct {
	Kind    NoticeKind
	Message string
}

// View carries everything about one rendering that is not the schema itself.
type View struct {
	FormID        uint
	Action        string
	EditAction    string
	Theme         string
	Background    string
	Style         Style
	Authenticated bool
	SignInURL     string
	Notice        *Notice
	Values        *Collector
	EditIndex     int
	EditError     string
	// EditLabel and EditPlaceholder refill a rejected edit surface.
	EditLabel       string
	EditPlaceholder string
}

type optionView struct {
	Label   string
	Value   string
	Checked bool
}

type fieldView struct {
	Index       int
	Name        string
	Label       string
	Placeholder string
	Strategy    string
	InputType   string
	Required    bool
	Value       string
	Options     []optionView
	EditOpen    bool
	EditLabel   string
	EditHint    string
}

type pageView struct {
	Title         string
	Subheading    string
	Fields        []fieldView
	Mode          Mode
	View          View
	BoxShadow     bool
	Border        string
	ShowSignIn    bool
	SubmitAllowed bool
}

// Render writes the form. Each field is dispatched on its kind to one of five
// strategies; unknown kinds use the text strategy.
func Render(w io.Writer, form *schema.Form, mode Mode, view View) error {
	page := pageView{
		Title:      form.DisplayTitle(),
		Subheading: form.Subheading,
		Mode:       mode,
		View:       view,
		BoxShadow:  view.Style.Key == "boxshadow",
		ShowSignIn: mode.RequireSignIn && !view.Authenticated,
	}
	if page.Subheading == "" {
		page.Subheading = "Fill out the form below"
	}
	if view.Style.Key == "border" {
		page.Border = view.Style.Value
	}
	page.SubmitAllowed = !page.ShowSignIn && !mode.SubmissionDisabled

	values := view.Values
	if values == nil {
		values = NewCollector(form)
	}
	for i, field := range form.Fields {
		page.Fields = append(page.Fields, buildField(i, field, values, mode, view))
	}

	if err := tpl.ExecuteTemplate(w, "form.html", page); err != nil {
		return fmt.Errorf("failed to render form: %w", err)
	}
	return nil
}

// RenderUnavailable is shown in place of a form whose stored schema cannot
// be parsed.
func RenderUnavailable(w io.Writer, formID uint) error {
	if err := tpl.ExecuteTemplate(w, "unavailable.html", formID); err != nil {
		return fmt.Errorf("failed to render placeholder: %w", err)
	}
	return nil
}

func buildField(i int, field schema.Field, values *Collector, mode Mode, view View) fieldView {
	fv := fieldView{
		Index:       i,
		Name:        field.Name,
		Label:       field.Label,
		Placeholder: field.Placeholder,
		Required:    field.Required,
		Value:       values.Text(field.Name),
		EditLabel:   field.Label,
		EditHint:    field.Placeholder,
	}
	if mode.Editable && view.EditIndex == i && view.EditError != "" {
		fv.EditOpen = true
		fv.EditLabel = view.EditLabel
		fv.EditHint = view.EditPlaceholder
	}

	switch field.Kind() {
	case schema.KindSelect:
		fv.Strategy = "select"
		if fv.Placeholder == "" {
			fv.Placeholder = "Select"
		}
		for _, o := range field.Options {
			fv.Options = append(fv.Options, optionView{Label: o.Label, Value: o.Value, Checked: o.Value == fv.Value})
		}
	case schema.KindCheckbox:
		fv.Strategy = "checkbox"
		for _, o := range field.Options {
			fv.Options = append(fv.Options, optionView{Label: o.Label, Value: o.Value, Checked: values.Checked(field.Name, o.Label)})
		}
	case schema.KindRadioGroup:
		fv.Strategy = "radiogroup"
		for _, o := range field.Options {
			fv.Options = append(fv.Options, optionView{Label: o.Label, Value: o.Value, Checked: o.Value == fv.Value})
		}
	case schema.KindCalendar:
		fv.Strategy = "calendar"
	default:
		fv.Strategy = "text"
		fv.InputType = field.InputType()
		if fv.Placeholder == "" {
			fv.Placeholder = "Enter value"
		}
	}
	return fv
}
