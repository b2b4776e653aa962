package domain

import "time"

// PullJob describes a scheduled ingestion of external records into a
// resource: fetch a JSON document from URL on the cron schedule and insert
// each element as a record.
type PullJob struct {
	ID         string
	Name       string
	ResourceID string
	URL        string
	Schedule   string // cron expression
	Path       string // optional dotted path to the array inside the response
	Active     bool
	CreatedAt  time.Time
}

// CreatePullJobRequest holds parameters for creating a pull job.
type CreatePullJobRequest struct {
	Name       string
	ResourceID string
	URL        string
	Schedule   string
	Path       string
}

// Validate checks that the request is well-formed.
func (r *CreatePullJobRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if r.ResourceID == "" {
		return ErrValidation("resource_id is required")
	}
	if r.URL == "" {
		return ErrValidation("url is required")
	}
	if r.Schedule == "" {
		return ErrValidation("schedule is required")
	}
	return nil
}
