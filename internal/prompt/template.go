// Package prompt turns flow templates and validated input into the literal
// text sent to a model.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ziadkadry99/krishi-mitra/internal/datauri"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// UnknownFieldError reports a placeholder that names no input field.
type UnknownFieldError struct {
	Template string
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("template %q references unknown field %q", e.Template, e.Field)
}

// Template is a compiled prompt template bound to an input schema.
type Template struct {
	name   string
	input  schema.Schema
	parts  []part
	fields []string
}

// part is either literal template text or a placeholder naming field.
type part struct {
	text  string
	field string
}

var malformedRegex = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// Compile parses text and checks that every {{field}} placeholder exists in
// input. Braces that do not form a valid placeholder are rejected as well. It
// is meant to run at startup so bad templates fail fast.
func Compile(name, text string, input schema.Schema) (*Template, error) {
	t := &Template{name: name, input: input}
	seen := make(map[string]bool)
	last := 0
	for _, m := range placeholderRegex.FindAllStringSubmatchIndex(text, -1) {
		if err := checkLiteral(name, text[last:m[0]]); err != nil {
			return nil, err
		}
		field := text[m[2]:m[3]]
		if _, ok := input.Lookup(field); !ok {
			return nil, &UnknownFieldError{Template: name, Field: field}
		}
		if !seen[field] {
			seen[field] = true
			t.fields = append(t.fields, field)
		}
		if m[0] > last {
			t.parts = append(t.parts, part{text: text[last:m[0]]})
		}
		t.parts = append(t.parts, part{field: field})
		last = m[1]
	}
	if err := checkLiteral(name, text[last:]); err != nil {
		return nil, err
	}
	if last < len(text) {
		t.parts = append(t.parts, part{text: text[last:]})
	}
	return t, nil
}

// checkLiteral rejects leftover {{ or }} in text between placeholders.
func checkLiteral(name, lit string) error {
	if !strings.Contains(lit, "{{") && !strings.Contains(lit, "}}") {
		return nil
	}
	token := malformedRegex.FindString(lit)
	if token == "" {
		token = "{{"
		if !strings.Contains(lit, "{{") {
			token = "}}"
		}
	}
	return &UnknownFieldError{Template: name, Field: token}
}

// Fields returns the placeholder names in order of first appearance.
func (t *Template) Fields() []string { return t.fields }

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Attachment is media pulled out of the input instead of being inlined.
type Attachment struct {
	Field    string
	MIMEType string
	Data     []byte
}

// Rendered is the output of Render. It is not modified after creation.
type Rendered struct {
	Text  string
	Media []Attachment
}

// Render substitutes values into the template. Media fields are attached in
// schema order whether or not the template mentions them; their placeholders
// are removed from the text.
func (t *Template) Render(values map[string]any) (*Rendered, error) {
	out := &Rendered{}

	for _, f := range t.input {
		if !f.Media {
			continue
		}
		raw, ok := values[f.Name].(string)
		if !ok || raw == "" {
			continue
		}
		d, err := datauri.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out.Media = append(out.Media, Attachment{Field: f.Name, MIMEType: d.MIMEType, Data: d.Data})
	}

	// Values are inlined as given and never scanned for placeholders again.
	// Only the template's own text is trimmed at either end.
	pieces := make([]part, 0, len(t.parts))
	for _, p := range t.parts {
		if p.field == "" {
			pieces = append(pieces, p)
			continue
		}
		if f, _ := t.input.Lookup(p.field); f.Media {
			continue
		}
		pieces = append(pieces, part{text: stringify(values[p.field]), field: p.field})
	}
	for len(pieces) > 0 && pieces[0].field == "" {
		if pieces[0].text = strings.TrimLeftFunc(pieces[0].text, unicode.IsSpace); pieces[0].text != "" {
			break
		}
		pieces = pieces[1:]
	}
	for n := len(pieces); n > 0 && pieces[n-1].field == ""; n = len(pieces) {
		if pieces[n-1].text = strings.TrimRightFunc(pieces[n-1].text, unicode.IsSpace); pieces[n-1].text != "" {
			break
		}
		pieces = pieces[:n-1]
	}

	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.text)
	}
	out.Text = b.String()
	return out, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(x, ", ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
