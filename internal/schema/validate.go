package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ziadkadry99/krishi-mitra/internal/datauri"
)

// Violation is a single field that failed validation.
type Violation struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// ValidationError collects every violated field of a value.
type ValidationError struct {
	Violations []Violation
}

func (ve *ValidationError) Error() string {
	msgs := make([]string, len(ve.Violations))
	for i, v := range ve.Violations {
		msgs[i] = fmt.Sprintf("%s: expected %s, got %s", v.Field, v.Expected, v.Actual)
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (ve *ValidationError) add(field, expected, actual string) {
	ve.Violations = append(ve.Violations, Violation{Field: field, Expected: expected, Actual: actual})
}

// Fields returns the names of the violated fields.
func (ve *ValidationError) Fields() []string {
	out := make([]string, len(ve.Violations))
	for i, v := range ve.Violations {
		out[i] = v.Field
	}
	return out
}

// Validate checks value against s. Unknown keys in value are ignored. The
// returned error is a *ValidationError listing all violations, or nil.
func Validate(s Schema, value map[string]any) error {
	ve := &ValidationError{}
	validateObject(s, value, "", ve)
	if len(ve.Violations) > 0 {
		return ve
	}
	return nil
}

func validateObject(fields []Field, obj map[string]any, prefix string, ve *ValidationError) {
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		v, ok := obj[f.Name]
		if !ok || v == nil {
			if !f.Optional {
				ve.add(path, describe(f), "missing")
			}
			continue
		}
		validateValue(f, v, path, ve)
	}
}

func validateValue(f Field, v any, path string, ve *ValidationError) {
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			ve.add(path, "string", actual(v))
			return
		}
		switch f.Format {
		case FormatDataURI:
			if _, err := datauri.Parse(s); err != nil {
				ve.add(path, "data URI (data:<mime>;base64,<data>)", truncate(s))
			}
		case FormatDate:
			if _, err := time.Parse("2006-01-02", s); err != nil {
				ve.add(path, "date YYYY-MM-DD", actual(v))
			}
		}
		if f.MinLen > 0 && len(s) < f.MinLen {
			ve.add(path, fmt.Sprintf("at least %d bytes", f.MinLen), fmt.Sprintf("%d bytes", len(s)))
		}
		if f.MaxLen > 0 && len(s) > f.MaxLen {
			ve.add(path, fmt.Sprintf("at most %d bytes", f.MaxLen), fmt.Sprintf("%d bytes", len(s)))
		}

	case KindNumber, KindInteger:
		n, ok := toFloat(v)
		if !ok {
			ve.add(path, string(f.Kind), actual(v))
			return
		}
		if f.Kind == KindInteger && n != math.Trunc(n) {
			ve.add(path, "integer", actual(v))
			return
		}
		if f.Positive && n <= 0 {
			ve.add(path, "positive "+string(f.Kind), actual(v))
		}

	case KindBoolean:
		if _, ok := v.(bool); !ok {
			ve.add(path, "boolean", actual(v))
		}

	case KindEnum:
		s, ok := v.(string)
		if !ok || !contains(f.Enum, s) {
			ve.add(path, describe(f), actual(v))
		}

	case KindArray:
		items, ok := toSlice(v)
		if !ok {
			ve.add(path, describe(f), actual(v))
			return
		}
		if len(items) < f.MinItems {
			ve.add(path, fmt.Sprintf("at least %d items", f.MinItems), fmt.Sprintf("%d items", len(items)))
		}
		if f.Items == nil {
			return
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				ve.add(itemPath, describe(*f.Items), "null")
				continue
			}
			validateValue(*f.Items, item, itemPath, ve)
		}

	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			ve.add(path, "object", actual(v))
			return
		}
		validateObject(f.Fields, obj, path, ve)

	default:
		ve.add(path, "known kind", string(f.Kind))
	}
}

func describe(f Field) string {
	switch f.Kind {
	case KindEnum:
		return "one of " + strings.Join(f.Enum, "|")
	case KindArray:
		if f.Items != nil {
			return "array of " + describe(*f.Items)
		}
		return "array"
	case "":
		return "value"
	}
	return string(f.Kind)
}

func actual(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", truncate(x))
	case bool:
		return fmt.Sprintf("boolean %t", x)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if n, ok := toFloat(v); ok {
		return fmt.Sprintf("number %v", n)
	}
	return fmt.Sprintf("%T", v)
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
