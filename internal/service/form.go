package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"formgrid/internal/domain"
	"formgrid/internal/repository"
)

// FormService manages form definitions over resources.
type FormService struct {
	forms     *repository.FormRepo
	resources *repository.ResourceRepo
}

// NewFormService creates a FormService.
func NewFormService(forms *repository.FormRepo, resources *repository.ResourceRepo) *FormService {
	return &FormService{forms: forms, resources: resources}
}

// Create validates that the form's fields are a subset of the resource
// schema before storing it.
func (s *FormService) Create(ctx context.Context, req domain.CreateFormRequest) (*domain.Form, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := s.resources.Get(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	reg := res.Registry()
	for _, f := range req.Fields {
		desc, ok := reg.Lookup(f.Name)
		if !ok {
			return nil, domain.ErrValidation("field %q not in resource %q", f.Name, res.Name)
		}
		if desc.Type != f.Type {
			return nil, domain.ErrValidation("field %q type mismatch", f.Name)
		}
	}

	fields := req.Fields
	if req.Core {
		// The core form always carries the full schema.
		fields = res.Fields
	}

	form := &domain.Form{
		ID:         uuid.NewString(),
		ResourceID: res.ID,
		Name:       req.Name,
		Core:       req.Core,
		Fields:     fields,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.forms.Create(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) Get(ctx context.Context, id string) (*domain.Form, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.forms.Get(ctx, id)
}

func (s *FormService) ListForResource(ctx context.Context, resourceID string) ([]*domain.Form, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.forms.ListForResource(ctx, resourceID)
}

func (s *FormService) Delete(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.forms.Delete(ctx, id)
}
