package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"formgrid/internal/domain"
	"formgrid/internal/repository"
)

// PullJobService manages scheduled ingestion jobs and executes one pull:
// fetch a JSON document, extract the record array, and insert each element
// into the job's resource. Runs are system-initiated and bypass the
// per-user ability model; the job itself is admin-provisioned.
type PullJobService struct {
	jobs      *repository.PullJobRepo
	records   *repository.RecordRepo
	resources *repository.ResourceRepo
	client    *http.Client
	logger    *slog.Logger
}

// NewPullJobService creates a PullJobService. A nil client falls back to a
// timeout-bounded default.
func NewPullJobService(
	jobs *repository.PullJobRepo,
	records *repository.RecordRepo,
	resources *repository.ResourceRepo,
	client *http.Client,
	logger *slog.Logger,
) *PullJobService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PullJobService{
		jobs:      jobs,
		records:   records,
		resources: resources,
		client:    client,
		logger:    logger.With("component", "pull-job"),
	}
}

// Create provisions a job.
func (s *PullJobService) Create(ctx context.Context, req domain.CreatePullJobRequest) (*domain.PullJob, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.resources.Get(ctx, req.ResourceID); err != nil {
		return nil, err
	}
	job := &domain.PullJob{
		ID:         uuid.NewString(),
		Name:       req.Name,
		ResourceID: req.ResourceID,
		URL:        req.URL,
		Schedule:   req.Schedule,
		Path:       req.Path,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ListActive returns the jobs the scheduler should register.
func (s *PullJobService) ListActive(ctx context.Context) ([]*domain.PullJob, error) {
	return s.jobs.ListActive(ctx)
}

// Run executes one pull. Each fetched element becomes a record attributed
// to the job.
func (s *PullJobService) Run(ctx context.Context, job *domain.PullJob) error {
	res, err := s.resources.Get(ctx, job.ResourceID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fmt.Errorf("build pull request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("pull %s: %w", job.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pull %s: unexpected status %d", job.URL, resp.StatusCode)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode pull response: %w", err)
	}

	items, err := extractItems(body, job.Path)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	inserted := 0
	for _, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := &domain.Record{
			ID:         uuid.NewString(),
			ResourceID: res.ID,
			Data:       normalizeSchemaData(data, res),
			CreatedBy:  "pulljob:" + job.ID,
			CreatedAt:  now,
			ModifiedAt: now,
		}
		if err := s.records.Insert(ctx, rec); err != nil {
			return err
		}
		inserted++
	}
	s.logger.Info("pull job ran", "job", job.Name, "resource", res.Name, "records", inserted)
	return nil
}

// extractItems walks the optional dotted path to the record array inside
// the fetched document.
func extractItems(body any, path string) ([]any, error) {
	current := body
	if path != "" {
		for _, key := range strings.Split(path, ".") {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("pull path %q: %q is not an object", path, key)
			}
			current, ok = obj[key]
			if !ok {
				return nil, fmt.Errorf("pull path %q: %q not found", path, key)
			}
		}
	}
	items, ok := current.([]any)
	if !ok {
		return nil, fmt.Errorf("pull payload is not an array")
	}
	return items, nil
}

// normalizeSchemaData keeps schema fields only and canonicalizes temporal
// values, like user-submitted record data.
func normalizeSchemaData(data map[string]any, res *domain.Resource) map[string]any {
	out := make(map[string]any, len(data))
	for _, f := range res.Fields {
		if v, ok := data[f.Name]; ok {
			out[f.Name] = domain.CanonicalizeValue(f.Type, v)
		}
	}
	return out
}
