package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"formgrid/internal/domain"
	"formgrid/internal/repository"
)

// ResourceService manages resource schemas. Mutations are admin-only;
// schema editing is the platform's trust boundary for what fields exist.
type ResourceService struct {
	resources *repository.ResourceRepo
	logger    *slog.Logger
}

// NewResourceService creates a ResourceService.
func NewResourceService(resources *repository.ResourceRepo, logger *slog.Logger) *ResourceService {
	return &ResourceService{resources: resources, logger: logger.With("component", "resource-service")}
}

func requireAdmin(ctx context.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated("not authenticated")
	}
	if !p.IsAdmin {
		return domain.Principal{}, domain.ErrAccessDenied("admin privileges required")
	}
	return p, nil
}

func requireUser(ctx context.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated("not authenticated")
	}
	return p, nil
}

func (s *ResourceService) Create(ctx context.Context, req domain.CreateResourceRequest) (*domain.Resource, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res := &domain.Resource{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Fields:    req.Fields,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, err
	}
	s.logger.Info("resource created", "resource", res.Name, "user", principal.ID)
	return res, nil
}

func (s *ResourceService) Get(ctx context.Context, id string) (*domain.Resource, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.resources.Get(ctx, id)
}

func (s *ResourceService) List(ctx context.Context) ([]*domain.Resource, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.resources.List(ctx)
}

// EditFields replaces a resource's schema.
func (s *ResourceService) EditFields(ctx context.Context, id string, fields []domain.FieldDescriptor) (*domain.Resource, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	req := domain.CreateResourceRequest{Name: "edit", Fields: fields}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.resources.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.resources.Get(ctx, id)
}

func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.resources.Delete(ctx, id)
}
