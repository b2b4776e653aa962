package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"formgrid/internal/service"
)

// Scheduler runs active pull jobs on their cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	jobs    *service.PullJobService
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID // pull job ID → cron entry
}

// New creates a pull-job scheduler.
func New(jobs *service.PullJobService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		jobs:    jobs,
		logger:  logger.With("component", "scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// Start loads all active pull jobs and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.loadSchedules(ctx); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("pull job scheduler started")
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("pull job scheduler stopped")
}

// Reload clears all cron entries and reloads from the database.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entryID := range s.entries {
		s.cron.Remove(entryID)
	}
	s.entries = make(map[string]cron.EntryID)

	return s.loadSchedules(ctx)
}

func (s *Scheduler) loadSchedules(ctx context.Context) error {
	jobs, err := s.jobs.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			if runErr := s.jobs.Run(context.Background(), job); runErr != nil {
				s.logger.Warn("pull job run failed",
					"job", job.Name,
					"error", runErr,
				)
			}
		})
		if err != nil {
			s.logger.Warn("invalid cron schedule",
				"job", job.Name,
				"schedule", job.Schedule,
				"error", err,
			)
			continue
		}

		s.entries[job.ID] = entryID
		s.logger.Info("scheduled pull job", "job", job.Name, "schedule", job.Schedule)
	}

	return nil
}
