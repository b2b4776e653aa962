// Package service implements the platform's use cases on top of the
// repositories, the filter compiler, and the query engine.
package service

import (
	"context"

	"formgrid/internal/ability"
	"formgrid/internal/domain"
	"formgrid/internal/filter"
	"formgrid/internal/repository"
)

// currentUserPlaceholder in a stored rule condition is bound to the
// requesting user's id when abilities are derived.
const currentUserPlaceholder = "$me"

var recordActions = []string{
	domain.ActionRead, domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete,
}

// AbilityService derives a user's ability set from their roles. The set is
// built fresh per request and immutable afterwards.
type AbilityService struct {
	roles *repository.RoleRepo
}

// NewAbilityService creates an AbilityService.
func NewAbilityService(roles *repository.RoleRepo) *AbilityService {
	return &AbilityService{roles: roles}
}

// ForRecords resolves the requesting user's abilities over the records of
// one resource. Rule conditions are compiled against the resource's field
// registry with the current-user placeholder bound. Returns
// UnauthenticatedError when the context carries no principal.
func (s *AbilityService) ForRecords(ctx context.Context, res *domain.Resource) (*ability.Set, error) {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated("not authenticated")
	}

	if principal.IsAdmin {
		abilities := make([]ability.Ability, len(recordActions))
		for i, action := range recordActions {
			abilities[i] = ability.Ability{Action: action, Subject: domain.SubjectRecord}
		}
		return ability.NewSet(abilities...), nil
	}

	rules, err := s.roles.ListRulesForUser(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	reg := res.Registry()
	var abilities []ability.Ability
	for _, rule := range rules {
		if rule.Subject != domain.SubjectRecord {
			continue
		}
		if rule.ResourceID != "" && rule.ResourceID != res.ID {
			continue
		}
		a := ability.Ability{Action: rule.Action, Subject: rule.Subject, Fields: rule.Fields}
		if len(rule.Condition) > 0 {
			node, err := filter.ParseNode(rule.Condition)
			if err != nil {
				// A rule whose condition cannot be parsed grants nothing;
				// skipping it keeps the default-deny posture.
				continue
			}
			bindPlaceholders(&node, principal)
			a.Condition = filter.Compile(node, reg)
		}
		abilities = append(abilities, a)
	}
	return ability.NewSet(abilities...), nil
}

// bindPlaceholders substitutes context-dependent values into a stored rule
// condition.
func bindPlaceholders(n *filter.Node, p domain.Principal) {
	if v, ok := n.Value.(string); ok && v == currentUserPlaceholder {
		n.Value = p.ID
	}
	for i := range n.Filters {
		bindPlaceholders(&n.Filters[i], p)
	}
}
