package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"formgrid/internal/domain"
	"formgrid/internal/repository"
)

// RoleService manages roles, rules, and user accounts. All mutations are
// admin-only; rule contents feed directly into the ability model.
type RoleService struct {
	roles *repository.RoleRepo
	users *repository.UserRepo
}

// NewRoleService creates a RoleService.
func NewRoleService(roles *repository.RoleRepo, users *repository.UserRepo) *RoleService {
	return &RoleService{roles: roles, users: users}
}

func (s *RoleService) Create(ctx context.Context, req domain.CreateRoleRequest) (*domain.Role, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role := &domain.Role{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Rules:     req.Rules,
		CreatedAt: time.Now().UTC(),
	}
	for i := range role.Rules {
		role.Rules[i].ID = uuid.NewString()
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.roles.Get(ctx, id)
}

func (s *RoleService) List(ctx context.Context) ([]*domain.Role, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.roles.List(ctx)
}

// AddRule attaches a rule to an existing role.
func (s *RoleService) AddRule(ctx context.Context, roleID string, rule domain.RoleRule) (*domain.Role, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.roles.Get(ctx, roleID); err != nil {
		return nil, err
	}
	rule.ID = uuid.NewString()
	rule.RoleID = roleID
	if err := s.roles.AddRule(ctx, &rule); err != nil {
		return nil, err
	}
	return s.roles.Get(ctx, roleID)
}

func (s *RoleService) Delete(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.roles.Delete(ctx, id)
}

// CreateUser provisions an account.
func (s *RoleService) CreateUser(ctx context.Context, name, email string, isAdmin bool, roleIDs []string) (*domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, domain.ErrValidation("email is required")
	}
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsAdmin:   isAdmin,
		RoleIDs:   roleIDs,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AssignRole adds a role to a user.
func (s *RoleService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	if _, err := s.roles.Get(ctx, roleID); err != nil {
		return err
	}
	return s.users.AssignRole(ctx, userID, roleID)
}
