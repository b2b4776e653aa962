package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"formgrid/internal/ability"
	"formgrid/internal/domain"
	"formgrid/internal/engine"
	"formgrid/internal/filter"
	"formgrid/internal/repository"
)

// RecordService serves record queries and mutations, enforcing the ability
// model on every operation.
type RecordService struct {
	records   *repository.RecordRepo
	resources *repository.ResourceRepo
	forms     *repository.FormRepo
	abilities *AbilityService
	engine    *engine.Engine
	logger    *slog.Logger
}

// NewRecordService creates a RecordService.
func NewRecordService(
	records *repository.RecordRepo,
	resources *repository.ResourceRepo,
	forms *repository.FormRepo,
	abilities *AbilityService,
	eng *engine.Engine,
	logger *slog.Logger,
) *RecordService {
	return &RecordService{
		records:   records,
		resources: resources,
		forms:     forms,
		abilities: abilities,
		engine:    eng,
		logger:    logger.With("component", "record-service"),
	}
}

// QueryRequest carries one record query. FormID optionally narrows the
// field registry to a form's subset.
type QueryRequest struct {
	ResourceID   string
	FormID       string
	Filter       filter.Node
	PageSize     int
	AfterCursor  string
	ArchivedOnly bool
}

// Query runs an access-scoped, filtered, cursor-paginated query over the
// resource's records.
func (s *RecordService) Query(ctx context.Context, req QueryRequest) (*domain.Page, error) {
	res, err := s.resources.Get(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	reg := res.Registry()
	if req.FormID != "" {
		form, err := s.forms.Get(ctx, req.FormID)
		if err != nil {
			return nil, err
		}
		if form.ResourceID != res.ID {
			return nil, domain.ErrValidation("form %q does not belong to resource %q", req.FormID, req.ResourceID)
		}
		reg = form.Registry()
	}

	abilities, err := s.abilities.ForRecords(ctx, res)
	if err != nil {
		return nil, err
	}

	return s.engine.Query(ctx, engine.Request{
		ResourceID:   res.ID,
		Fields:       reg,
		Filter:       req.Filter,
		Abilities:    abilities,
		Action:       domain.ActionRead,
		AfterCursor:  req.AfterCursor,
		PageSize:     req.PageSize,
		ArchivedOnly: req.ArchivedOnly,
	})
}

// Get fetches one record, enforcing the read scope and redacting
// non-visible fields.
func (s *RecordService) Get(ctx context.Context, id string) (*domain.Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resources.Get(ctx, rec.ResourceID)
	if err != nil {
		return nil, err
	}
	abilities, err := s.abilities.ForRecords(ctx, res)
	if err != nil {
		return nil, err
	}
	if !filter.Matches(abilities.ScopeFor(domain.ActionRead, domain.SubjectRecord), rec) {
		return nil, domain.ErrAccessDenied("not allowed to read record %q", id)
	}
	return engine.Redact(rec, abilities.VisibleFields(domain.ActionRead, domain.SubjectRecord)), nil
}

// Add creates a record. Data is restricted to writable schema fields and
// temporal values are canonicalized before storage.
func (s *RecordService) Add(ctx context.Context, req domain.AddRecordRequest) (*domain.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated("not authenticated")
	}
	res, err := s.resources.Get(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	abilities, err := s.abilities.ForRecords(ctx, res)
	if err != nil {
		return nil, err
	}
	if !abilities.Can(domain.ActionCreate, domain.SubjectRecord) {
		return nil, domain.ErrAccessDenied("not allowed to create records on %q", res.Name)
	}

	writable := abilities.VisibleFields(domain.ActionCreate, domain.SubjectRecord)
	now := time.Now().UTC()
	rec := &domain.Record{
		ID:         uuid.NewString(),
		ResourceID: res.ID,
		Data:       normalizeData(req.Data, res, writable),
		CreatedBy:  principal.ID,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("record added", "record_id", rec.ID, "resource", res.Name, "user", principal.ID)
	return engine.Redact(rec, abilities.VisibleFields(domain.ActionRead, domain.SubjectRecord)), nil
}

// Edit updates a record's data, merging writable fields over the stored
// values and bumping the modification timestamp.
func (s *RecordService) Edit(ctx context.Context, req domain.EditRecordRequest) (*domain.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec, res, abilities, err := s.loadForWrite(ctx, req.RecordID, domain.ActionUpdate)
	if err != nil {
		return nil, err
	}

	writable := abilities.VisibleFields(domain.ActionUpdate, domain.SubjectRecord)
	for name, value := range normalizeData(req.Data, res, writable) {
		rec.Data[name] = value
	}
	rec.ModifiedAt = time.Now().UTC()
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, err
	}
	// Responses follow read visibility, not the broader update grant.
	return engine.Redact(rec, abilities.VisibleFields(domain.ActionRead, domain.SubjectRecord)), nil
}

// Archive soft-deletes a record; archived records are excluded from
// queries unless explicitly requested.
func (s *RecordService) Archive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, true)
}

// Restore reverses a soft delete.
func (s *RecordService) Restore(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, false)
}

// Delete permanently removes a record.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	rec, _, _, err := s.loadForWrite(ctx, id, domain.ActionDelete)
	if err != nil {
		return err
	}
	return s.records.Delete(ctx, rec.ID)
}

func (s *RecordService) setArchived(ctx context.Context, id string, archived bool) error {
	rec, _, _, err := s.loadForWrite(ctx, id, domain.ActionDelete)
	if err != nil {
		return err
	}
	return s.records.SetArchived(ctx, rec.ID, archived, domain.FormatTimestamp(time.Now().UTC()))
}

// loadForWrite fetches the record and checks the action's scope against it.
func (s *RecordService) loadForWrite(ctx context.Context, id, action string) (*domain.Record, *domain.Resource, *ability.Set, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := s.resources.Get(ctx, rec.ResourceID)
	if err != nil {
		return nil, nil, nil, err
	}
	abilities, err := s.abilities.ForRecords(ctx, res)
	if err != nil {
		return nil, nil, nil, err
	}
	if !filter.Matches(abilities.ScopeFor(action, domain.SubjectRecord), rec) {
		return nil, nil, nil, domain.ErrAccessDenied("not allowed to %s record %q", action, id)
	}
	return rec, res, abilities, nil
}

// normalizeData keeps only writable schema fields and canonicalizes
// temporal values so stored comparisons stay total-ordered.
func normalizeData(data map[string]any, res *domain.Resource, writable ability.FieldSet) map[string]any {
	out := make(map[string]any, len(data))
	for _, f := range res.Fields {
		v, ok := data[f.Name]
		if !ok || !writable.Visible(f.Name) {
			continue
		}
		out[f.Name] = domain.CanonicalizeValue(f.Type, v)
	}
	return out
}
