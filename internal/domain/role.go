package domain

import (
	"encoding/json"
	"time"
)

// Actions a role rule can grant on records.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// SubjectRecord is the subject type of record-level rules.
const SubjectRecord = "Record"

// User is a platform account. Authentication is external (OIDC or dev JWT);
// the user row carries identity and role membership only.
type User struct {
	ID        string
	Name      string
	Email     string
	IsAdmin   bool
	RoleIDs   []string
	CreatedAt time.Time
}

// Role is a named bundle of rules assignable to users.
type Role struct {
	ID        string
	Name      string
	Rules     []RoleRule
	CreatedAt time.Time
}

// RoleRule grants one action on a subject type, optionally scoped to a
// single resource, a condition filter, and a field allow-list.
//
// Condition is a client-shaped filter tree (the same {logic, filters} /
// {field, operator, value} JSON as record queries). The placeholder value
// "$me" is bound to the requesting user's id when abilities are derived.
type RoleRule struct {
	ID         string
	RoleID     string
	Action     string
	Subject    string
	ResourceID string          // empty = all resources
	Condition  json.RawMessage // nil = unconditional
	Fields     []string        // nil = all fields
}

// Validate checks that the rule is well-formed.
func (r *RoleRule) Validate() error {
	switch r.Action {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
	default:
		return ErrValidation("unknown action %q", r.Action)
	}
	if r.Subject == "" {
		return ErrValidation("subject is required")
	}
	if len(r.Condition) > 0 && !json.Valid(r.Condition) {
		return ErrValidation("condition is not valid JSON")
	}
	return nil
}

// CreateRoleRequest holds parameters for creating a role.
type CreateRoleRequest struct {
	Name  string
	Rules []RoleRule
}

// Validate checks that the request is well-formed.
func (r *CreateRoleRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	for i := range r.Rules {
		if err := r.Rules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
