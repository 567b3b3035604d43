package schema

// JSONSchema renders s as a JSON Schema object document. Providers that
// accept a schema for structured output (and prompts describing the expected
// reply) use this form.
func JSONSchema(s Schema) map[string]any {
	return objectSchema(s, "")
}

func objectSchema(fields []Field, description string) map[string]any {
	props := make(map[string]any, len(fields))
	required := []string{}
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	if description != "" {
		out["description"] = description
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Kind {
	case KindObject:
		return objectSchema(f.Fields, f.Description)
	case KindEnum:
		out = map[string]any{"type": "string", "enum": f.Enum}
	case KindArray:
		out = map[string]any{"type": "array"}
		if f.Items != nil {
			out["items"] = fieldSchema(*f.Items)
		}
		if f.MinItems > 0 {
			out["minItems"] = f.MinItems
		}
	case KindNumber, KindInteger:
		out = map[string]any{"type": string(f.Kind)}
		if f.Positive {
			out["exclusiveMinimum"] = 0
		}
	case KindString:
		out = map[string]any{"type": "string"}
		if f.Format == FormatDate {
			out["format"] = "date"
		}
		if f.MinLen > 0 {
			out["minLength"] = f.MinLen
		}
		if f.MaxLen > 0 {
			out["maxLength"] = f.MaxLen
		}
	default:
		out = map[string]any{"type": string(f.Kind)}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

// FieldSchema renders a single field as a JSON Schema fragment.
func FieldSchema(f Field) map[string]any {
	return fieldSchema(f)
}
