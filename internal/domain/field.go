package domain

// FieldType classifies a resource field and governs how filter operators
// compare values of that field.
type FieldType string

// Known field types. Anything else falls back to FieldText semantics.
const (
	FieldText          FieldType = "text"
	FieldDate          FieldType = "date"
	FieldDateTime      FieldType = "datetime"
	FieldDateTimeLocal FieldType = "datetime-local"
	FieldTime          FieldType = "time"
	FieldCheckbox      FieldType = "checkbox"
	FieldTagbox        FieldType = "tagbox"
	FieldOwner         FieldType = "owner"
	FieldCalculated    FieldType = "calculated"
)

// ParseFieldType maps a raw type string to a FieldType, falling back to
// text semantics for types the comparison table does not distinguish
// (dropdown, radiogroup, numeric, ...).
func ParseFieldType(raw string) FieldType {
	switch FieldType(raw) {
	case FieldDate, FieldDateTime, FieldDateTimeLocal, FieldTime,
		FieldCheckbox, FieldTagbox, FieldOwner, FieldCalculated:
		return FieldType(raw)
	default:
		return FieldText
	}
}

// IsMultiselect reports whether values of this type are sets of discrete
// choices, which changes equality and containment semantics.
func (t FieldType) IsMultiselect() bool {
	return t == FieldCheckbox || t == FieldTagbox || t == FieldOwner
}

// IsTemporal reports whether values of this type are coerced to timestamps
// before comparison.
func (t FieldType) IsTemporal() bool {
	return t == FieldDate || t == FieldDateTime || t == FieldDateTimeLocal || t == FieldTime
}

// FieldDescriptor describes one field available on a resource or form.
type FieldDescriptor struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// Built-in identity and timestamp fields, always present on every record
// and addressed without the data namespace.
const (
	BuiltinID         = "id"
	BuiltinCreatedAt  = "createdAt"
	BuiltinModifiedAt = "modifiedAt"
)

var builtinFields = []FieldDescriptor{
	{Name: BuiltinID, Type: FieldText},
	{Name: BuiltinCreatedAt, Type: FieldDate},
	{Name: BuiltinModifiedAt, Type: FieldDate},
}

// Registry is the set of fields a filter can reference, built fresh per
// request and read-only afterwards.
type Registry struct {
	byName map[string]FieldDescriptor
}

// NewRegistry builds a Registry from user-defined fields, appending the
// built-in identity and timestamp fields.
func NewRegistry(fields []FieldDescriptor) Registry {
	byName := make(map[string]FieldDescriptor, len(fields)+len(builtinFields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	for _, f := range builtinFields {
		byName[f.Name] = f
	}
	return Registry{byName: byName}
}

// Lookup resolves a field name. The second return is false for names that
// are neither user-defined nor built-in.
func (r Registry) Lookup(name string) (FieldDescriptor, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// IsBuiltin reports whether the name addresses a built-in field stored
// outside the data namespace.
func IsBuiltin(name string) bool {
	return name == BuiltinID || name == BuiltinCreatedAt || name == BuiltinModifiedAt
}
