package domain

import "time"

// Resource is a user-defined schema plus its stored records.
type Resource struct {
	ID        string
	Name      string
	Fields    []FieldDescriptor
	CreatedAt time.Time
}

// Registry builds the field registry for filters over this resource's records.
func (r *Resource) Registry() Registry {
	return NewRegistry(r.Fields)
}

// CreateResourceRequest holds parameters for creating a resource.
type CreateResourceRequest struct {
	Name   string
	Fields []FieldDescriptor
}

// Validate checks that the request is well-formed.
func (r *CreateResourceRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	seen := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if f.Name == "" {
			return ErrValidation("field name is required")
		}
		if IsBuiltin(f.Name) {
			return ErrValidation("field name %q is reserved", f.Name)
		}
		if seen[f.Name] {
			return ErrValidation("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Form is a UI definition over a subset of a resource's fields. The core
// form carries the full schema; non-core forms expose a field subset.
type Form struct {
	ID         string
	ResourceID string
	Name       string
	Core       bool
	Fields     []FieldDescriptor
	CreatedAt  time.Time
}

// Registry builds the field registry for filters issued through this form.
func (f *Form) Registry() Registry {
	return NewRegistry(f.Fields)
}

// CreateFormRequest holds parameters for creating a form.
type CreateFormRequest struct {
	ResourceID string
	Name       string
	Core       bool
	Fields     []FieldDescriptor
}

// Validate checks that the request is well-formed.
func (r *CreateFormRequest) Validate() error {
	if r.ResourceID == "" {
		return ErrValidation("resource_id is required")
	}
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	return nil
}
