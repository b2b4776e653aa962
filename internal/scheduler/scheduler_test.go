package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"formgrid/internal/db"
	"formgrid/internal/domain"
	"formgrid/internal/repository"
	"formgrid/internal/service"
)

func newSchedulerFixture(t *testing.T) (*Scheduler, *repository.PullJobRepo, string) {
	t.Helper()

	writeDB, _ := db.OpenTest(t)
	ctx := context.Background()

	resourceRepo := repository.NewResourceRepo(writeDB)
	recordRepo := repository.NewRecordRepo(writeDB)
	pullJobRepo := repository.NewPullJobRepo(writeDB)

	res := &domain.Resource{ID: "res-1", Name: "readings", Fields: nil, CreatedAt: time.Now().UTC()}
	require.NoError(t, resourceRepo.Create(ctx, res))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewPullJobService(pullJobRepo, recordRepo, resourceRepo, nil, logger)
	return New(svc, logger), pullJobRepo, res.ID
}

func seedJob(t *testing.T, repo *repository.PullJobRepo, resourceID, id, schedule string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.PullJob{
		ID: id, Name: "job-" + id, ResourceID: resourceID,
		URL: "http://example.com/feed", Schedule: schedule,
		Active: true, CreatedAt: time.Now().UTC(),
	}))
}

func TestScheduler_StartRegistersActiveJobs(t *testing.T) {
	s, jobs, resID := newSchedulerFixture(t)
	seedJob(t, jobs, resID, "job-1", "@daily")
	seedJob(t, jobs, resID, "job-2", "not-a-schedule")

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Len(t, s.entries, 1, "jobs with invalid schedules are skipped")
	assert.Contains(t, s.entries, "job-1")
}

func TestScheduler_ReloadDropsDeactivatedJobs(t *testing.T) {
	s, jobs, resID := newSchedulerFixture(t)
	seedJob(t, jobs, resID, "job-1", "@hourly")

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()
	require.Len(t, s.entries, 1)

	require.NoError(t, jobs.SetActive(ctx, "job-1", false))
	require.NoError(t, s.Reload(ctx))
	assert.Empty(t, s.entries)
}
