// Package ability models a user's granted capabilities and adapts them into
// storage predicates composable with compiled record filters.
package ability

import "formgrid/internal/filter"

// Ability is a single granted capability: an action on a subject type,
// optionally scoped by a record condition and a field allow-list.
// A nil Condition is an unconditional grant; nil Fields means all fields.
type Ability struct {
	Action    string
	Subject   string
	Condition *filter.Predicate
	Fields    []string
}

// Set is an immutable collection of abilities, derived fresh per request
// from the user's roles and never mutated afterwards.
type Set struct {
	abilities []Ability
}

// NewSet builds a Set. The slice is copied; the Set never aliases caller
// memory.
func NewSet(abilities ...Ability) *Set {
	owned := make([]Ability, len(abilities))
	copy(owned, abilities)
	return &Set{abilities: owned}
}

func (s *Set) matching(action, subject string) []Ability {
	var out []Ability
	for _, a := range s.abilities {
		if a.Action == action && a.Subject == subject {
			out = append(out, a)
		}
	}
	return out
}

// ScopeFor converts the set into the storage predicate restricting which
// records the holder may apply the action to. The combination rules are
// security-relevant and fixed: an unconditional matching grant
// short-circuits to the identity predicate; otherwise matching conditions
// combine with OR; no matching grant at all is default-deny.
func (s *Set) ScopeFor(action, subject string) *filter.Predicate {
	matching := s.matching(action, subject)
	if len(matching) == 0 {
		return filter.None()
	}
	conditions := make([]*filter.Predicate, 0, len(matching))
	for _, a := range matching {
		if a.Condition == nil {
			return filter.All()
		}
		conditions = append(conditions, a.Condition)
	}
	return filter.Or(conditions...)
}

// FieldSet is the result of field-level scoping: either every field, or an
// explicit allow-list.
type FieldSet struct {
	All   bool
	Names map[string]struct{}
}

// Visible reports whether the named field is in the set.
func (f FieldSet) Visible(name string) bool {
	if f.All {
		return true
	}
	_, ok := f.Names[name]
	return ok
}

// VisibleFields computes the field allow-list for the action: a matching
// grant without a field restriction yields all fields; otherwise the union
// of the matching grants' field lists. No matching grant yields the empty
// set, consistent with default-deny.
func (s *Set) VisibleFields(action, subject string) FieldSet {
	names := make(map[string]struct{})
	for _, a := range s.matching(action, subject) {
		if a.Fields == nil {
			return FieldSet{All: true}
		}
		for _, f := range a.Fields {
			names[f] = struct{}{}
		}
	}
	return FieldSet{Names: names}
}

// Can reports whether any grant matches the action and subject at all,
// regardless of conditions. Callers that need per-record decisions combine
// ScopeFor with predicate evaluation instead.
func (s *Set) Can(action, subject string) bool {
	return len(s.matching(action, subject)) > 0
}
