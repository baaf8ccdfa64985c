package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
)

// Keys are tried in order; the first one present wins.
var (
	fieldListKeys   = []string{"fields", "formFields", "form"}
	nameKeys        = []string{"fieldName", "formField", "name"}
	labelKeys       = []string{"formLabel", "label"}
	placeholderKeys = []string{"placeholderName", "placeholder"}
	typeKeys        = []string{"fieldType", "type"}
	requiredKeys    = []string{"fieldRequired", "required"}
	optionListKeys  = []string{"options", "checkboxItems", "radiogroupItems", "radioItems"}
	optionLabelKeys = []string{"label", "checkboxItemLabel", "radiogroupItemLabel", "radioItemLabel"}
	optionValueKeys = []string{"value", "checkboxItemValue", "radiogroupItemValue", "radioItemValue"}
)

// Parse turns stored schema text into a normalized Form. It fails with
// errorz.ErrMalformedSchema when the text is not a JSON object or carries no
// field list. Duplicate names and empty option lists are accepted.
func Parse(text string) (*Form, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(stripFence(text)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errorz.ErrMalformedSchema, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", errorz.ErrMalformedSchema)
	}

	list, ok := firstList(doc, fieldListKeys)
	if !ok {
		return nil, fmt.Errorf("%w: no field list", errorz.ErrMalformedSchema)
	}

	form := &Form{
		Title:      firstString(doc, []string{"formTitle", "title"}),
		Subheading: firstString(doc, []string{"formSubheading", "subheading"}),
		Fields:     make([]Field, 0, len(list)),
	}
	for i, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %d is not an object", errorz.ErrMalformedSchema, i)
		}
		form.Fields = append(form.Fields, parseField(raw))
	}
	return form, nil
}

func parseField(raw map[string]any) Field {
	f := Field{
		Name:        firstString(raw, nameKeys),
		Label:       firstString(raw, labelKeys),
		Placeholder: firstString(raw, placeholderKeys),
		Type:        strings.TrimSpace(firstString(raw, typeKeys)),
		Required:    firstBool(raw, requiredKeys),
	}
	if f.Label == "" {
		f.Label = f.Name
	}
	if list, ok := firstList(raw, optionListKeys); ok {
		for _, item := range list {
			if o, ok := parseOption(item); ok {
				f.Options = append(f.Options, o)
			}
		}
	}
	return f
}

func parseOption(item any) (Option, bool) {
	if s, ok := scalarString(item); ok {
		return Option{Label: s, Value: s}, true
	}
	raw, ok := item.(map[string]any)
	if !ok {
		return Option{}, false
	}
	o := Option{
		Label: firstString(raw, optionLabelKeys),
		Value: firstString(raw, optionValueKeys),
	}
	if o.Label == "" && o.Value == "" {
		return Option{}, false
	}
	if o.Value == "" {
		o.Value = o.Label
	}
	if o.Label == "" {
		o.Label = o.Value
	}
	return o, true
}

// stripFence removes a markdown code fence, which language models like to
// wrap JSON answers in.
func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func firstList(m map[string]any, keys []string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := scalarString(m[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstBool(m map[string]any, keys []string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			return v
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err == nil {
				return b
			}
		case float64:
			return v != 0
		}
	}
	return false
}

func scalarString(v any) (string, bool) {
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
