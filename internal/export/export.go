// Package export flattens stored responses into spreadsheet rows, one column
// per schema field in schema order.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
	"github.com/dhanavadh/aiform-backend/internal/schema"
)

const DefaultFilename = "form_responses"

var calendarLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
	Dropped int
}

// Records keys each row by column label. When two fields share a label the
// later column wins, matching a spreadsheet built from keyed objects.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]string, len(row))
		for j, cell := range row {
			rec[t.Columns[j]] = cell
		}
		out[i] = rec
	}
	return out
}

type Exporter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{logger: logger}
}

// FromText parses the stored schema text before exporting. A schema that
// cannot be parsed has no field list and yields ErrEmptyExport as well as
// ErrMalformedSchema.
func (e *Exporter) FromText(schemaText string, responses []string) (*Table, error) {
	form, err := schema.Parse(schemaText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errorz.ErrEmptyExport, err)
	}
	return e.Rows(form, responses)
}

// Rows builds one row per response that parses. Responses that do not parse
// are logged and skipped.
func (e *Exporter) Rows(form *schema.Form, responses []string) (*Table, error) {
	if form == nil || form.Fields == nil {
		return nil, fmt.Errorf("%w: schema has no field list", errorz.ErrEmptyExport)
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: no responses found for this form", errorz.ErrEmptyExport)
	}

	t := &Table{Title: form.Title, Columns: make([]string, len(form.Fields))}
	for i, f := range form.Fields {
		t.Columns[i] = f.Label
	}

	for i, text := range responses {
		var record map[string]any
		if err := json.Unmarshal([]byte(text), &record); err != nil || record == nil {
			e.logger.Warn("dropping unparseable response", zap.Int("index", i), zap.Error(err))
			t.Dropped++
			continue
		}
		row := make([]string, len(form.Fields))
		for j, f := range form.Fields {
			row[j] = Cell(f, record[f.Name])
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: processed data is empty", errorz.ErrEmptyExport)
	}
	return t, nil
}

// Cell normalizes one raw response value for its field.
func Cell(f schema.Field, v any) string {
	switch f.Kind() {
	case schema.KindCheckbox:
		if items, ok := v.([]any); ok {
			labels := make([]string, 0, len(items))
			for _, item := range items {
				if l := itemLabel(item); l != "" {
					labels = append(labels, l)
				}
			}
			return strings.Join(labels, ", ")
		}
	case schema.KindCalendar:
		if s, ok := v.(string); ok {
			if d, ok := calendarDate(s); ok {
				return d
			}
		}
	case schema.KindRadioGroup, schema.KindSelect:
		s, _ := scalar(v)
		label, _ := f.OptionLabel(s)
		return label
	}
	s, _ := scalar(v)
	return s
}

func Filename(form *schema.Form) string {
	if form == nil {
		return filename("")
	}
	return filename(form.Title)
}

// Filename names the spreadsheet after the form the rows came from.
func (t *Table) Filename() string {
	return filename(t.Title)
}

func filename(title string) string {
	name := DefaultFilename
	if strings.TrimSpace(title) != "" {
		name = strings.TrimSpace(title)
	}
	name = strings.NewReplacer("/", "_", `\`, "_", `"`, "_").Replace(name)
	return name + ".xlsx"
}

func calendarDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range calendarLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func itemLabel(item any) string {
	if m, ok := item.(map[string]any); ok {
		if l, ok := scalar(m["label"]); ok && l != "" {
			return l
		}
		l, _ := scalar(m["value"])
		return l
	}
	s, _ := scalar(item)
	return s
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
