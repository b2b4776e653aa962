package domain

import "time"

// Record is one stored data instance conforming to a resource schema.
// User-defined field values live in Data; identity and timestamps are
// first-class columns.
type Record struct {
	ID         string
	ResourceID string
	Data       map[string]any
	CreatedBy  string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Archived   bool
}

// Clone returns a deep-enough copy for redaction: the Data map is copied,
// values are shared.
func (r *Record) Clone() *Record {
	out := *r
	out.Data = make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		out.Data[k] = v
	}
	return &out
}

// AddRecordRequest holds parameters for creating a record.
type AddRecordRequest struct {
	ResourceID string
	Data       map[string]any
}

// Validate checks that the request is well-formed.
func (r *AddRecordRequest) Validate() error {
	if r.ResourceID == "" {
		return ErrValidation("resource_id is required")
	}
	if r.Data == nil {
		return ErrValidation("data is required")
	}
	return nil
}

// EditRecordRequest holds parameters for updating a record's data.
type EditRecordRequest struct {
	RecordID string
	Data     map[string]any
}

// Validate checks that the request is well-formed.
func (r *EditRecordRequest) Validate() error {
	if r.RecordID == "" {
		return ErrValidation("record_id is required")
	}
	if len(r.Data) == 0 {
		return ErrValidation("data is required")
	}
	return nil
}
