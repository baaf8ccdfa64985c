package render

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/dhanavadh/aiform-backend/internal/schema"
)

// Collector accumulates one respondent's answers keyed by fieldName.
// Checkbox answers are lists of {label, value} pairs; everything else is a
// single string.
type Collector struct {
	form   *schema.Form
	values map[string]any
}

func NewCollector(form *schema.Form) *Collector {
	return &Collector{form: form, values: make(map[string]any)}
}

func (c *Collector) Set(name, value string) {
	c.values[name] = value
}

// Toggle appends the option when checked and removes it (matched by label)
// when unchecked.
func (c *Collector) Toggle(name string, opt schema.Option, checked bool) {
	list, _ := c.values[name].([]schema.Option)
	kept := list[:0:0]
	for _, o := range list {
		if o.Label != opt.Label {
			kept = append(kept, o)
		}
	}
	if checked {
		kept = append(kept, opt)
	}
	c.values[name] = kept
}

func (c *Collector) Reset() {
	c.values = make(map[string]any)
}

// Record returns a copy of the collected answers.
func (c *Collector) Record() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		if opts, ok := v.([]schema.Option); ok {
			v = append([]schema.Option(nil), opts...)
		}
		out[k] = v
	}
	return out
}

func (c *Collector) Encode() (string, error) {
	b, err := json.Marshal(c.values)
	if err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return string(b), nil
}

// Text returns the single value collected for name, or "".
func (c *Collector) Text(name string) string {
	s, _ := c.values[name].(string)
	return s
}

func (c *Collector) Checked(name, label string) bool {
	list, _ := c.values[name].([]schema.Option)
	for _, o := range list {
		if o.Label == label {
			return true
		}
	}
	return false
}

// FromValues collects an urlencoded form post. Only fields present in the
// post are recorded.
func FromValues(form *schema.Form, values url.Values) *Collector {
	c := NewCollector(form)
	for _, field := range form.Fields {
		posted, ok := values[field.Name]
		if !ok || field.Name == "" {
			continue
		}
		switch field.Kind() {
		case schema.KindCheckbox:
			c.values[field.Name] = []schema.Option{}
			for _, v := range posted {
				if opt, ok := matchOption(field, v); ok {
					c.Toggle(field.Name, opt, true)
				}
			}
		default:
			if len(posted) > 0 {
				c.Set(field.Name, posted[0])
			}
		}
	}
	return c
}

// FromRecord loads a JSON response record, as posted by SPA clients. Keys
// that are not fields of the form are dropped.
func FromRecord(form *schema.Form, record map[string]any) *Collector {
	c := NewCollector(form)
	for _, field := range form.Fields {
		raw, ok := record[field.Name]
		if !ok || field.Name == "" {
			continue
		}
		if field.Kind() != schema.KindCheckbox {
			if s, ok := raw.(string); ok {
				c.Set(field.Name, s)
			} else if raw != nil {
				c.Set(field.Name, fmt.Sprint(raw))
			}
			continue
		}
		c.values[field.Name] = []schema.Option{}
		items, _ := raw.([]any)
		for _, item := range items {
			switch v := item.(type) {
			case string:
				if opt, ok := matchOption(field, v); ok {
					c.Toggle(field.Name, opt, true)
				}
			case map[string]any:
				label, _ := v["label"].(string)
				value, _ := v["value"].(string)
				if opt, ok := matchOption(field, value); ok && value != "" {
					c.Toggle(field.Name, opt, true)
				} else if opt, ok := matchOption(field, label); ok {
					c.Toggle(field.Name, opt, true)
				} else if label != "" {
					c.Toggle(field.Name, schema.Option{Label: label, Value: value}, true)
				}
			}
		}
	}
	return c
}

func matchOption(field schema.Field, v string) (schema.Option, bool) {
	for _, o := range field.Options {
		if o.Value == v || o.Label == v {
			return o, true
		}
	}
	return schema.Option{}, false
}
