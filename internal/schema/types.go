package schema

// Kind tags the primitive shape a field must have.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// String formats.
const (
	// FormatDataURI requires a string of the form data:<mime>;base64,<data>.
	FormatDataURI = "data-uri"
	// FormatDate requires a calendar date, YYYY-MM-DD.
	FormatDate = "date"
)

// Field describes one named value. Description is documentation only and is
// never enforced.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	Optional    bool

	// Positive requires numbers to be strictly greater than zero.
	Positive bool
	// Enum lists the allowed values for KindEnum.
	Enum []string
	// Format is an optional string format: FormatDataURI or FormatDate.
	Format string
	// MinLen and MaxLen bound string length in bytes. Zero means no bound.
	MinLen int
	MaxLen int
	// Media marks a data URI field that prompts attach rather than inline.
	Media bool

	// Items describes array elements.
	Items *Field
	// MinItems is the minimum array length.
	MinItems int
	// Fields describes object properties.
	Fields []Field
}

// Schema is the set of fields of a top-level object.
type Schema []Field

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// String builds a required string field.
func String(name, description string) Field {
	return Field{Name: name, Kind: KindString, Description: description}
}

// Number builds a required number field.
func Number(name, description string) Field {
	return Field{Name: name, Kind: KindNumber, Description: description}
}

// Integer builds a required integer field.
func Integer(name, description string) Field {
	return Field{Name: name, Kind: KindInteger, Description: description}
}

// Enum builds a required enum field.
func Enum(name, description string, values ...string) Field {
	return Field{Name: name, Kind: KindEnum, Description: description, Enum: values}
}

// Media builds a required data URI field that is attached to prompts as media.
func Media(name, description string) Field {
	return Field{Name: name, Kind: KindString, Description: description, Format: FormatDataURI, Media: true}
}

// StringList builds a required array-of-strings field.
func StringList(name, description string) Field {
	return Field{Name: name, Kind: KindArray, Description: description, Items: &Field{Kind: KindString}}
}

// ObjectList builds a required array field whose elements have the given fields.
func ObjectList(name, description string, fields ...Field) Field {
	return Field{Name: name, Kind: KindArray, Description: description, Items: &Field{Kind: KindObject, Fields: fields}}
}

// Object builds a required object field.
func Object(name, description string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObject, Description: description, Fields: fields}
}

// Opt returns a copy of f marked optional.
func (f Field) Opt() Field {
	f.Optional = true
	return f
}

// Pos returns a copy of f with the positive constraint.
func (f Field) Pos() Field {
	f.Positive = true
	return f
}

// Date returns a copy of f requiring a YYYY-MM-DD string.
func (f Field) Date() Field {
	f.Format = FormatDate
	return f
}

// Len returns a copy of f bounding string length in bytes. max <= 0 leaves
// the upper bound open.
func (f Field) Len(min, max int) Field {
	f.MinLen = min
	f.MaxLen = max
	return f
}

// Min returns a copy of f requiring at least n array items.
func (f Field) Min(n int) Field {
	f.MinItems = n
	return f
}
