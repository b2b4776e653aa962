package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"formgrid/internal/domain"
)

// PullJobRepo stores scheduled ingestion jobs.
type PullJobRepo struct {
	db *sql.DB
}

// NewPullJobRepo creates a PullJobRepo on the given pool.
func NewPullJobRepo(db *sql.DB) *PullJobRepo {
	return &PullJobRepo{db: db}
}

const pullJobColumns = "id, name, resource_id, url, schedule, path, active, created_at"

func (r *PullJobRepo) Create(ctx context.Context, j *domain.PullJob) error {
	var path *string
	if j.Path != "" {
		path = &j.Path
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO pull_jobs (id, name, resource_id, url, schedule, path, active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		j.ID, j.Name, j.ResourceID, j.URL, j.Schedule, path, j.Active, domain.FormatTimestamp(j.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert pull job: %w", err)
	}
	return nil
}

func (r *PullJobRepo) Get(ctx context.Context, id string) (*domain.PullJob, error) {
	j, err := scanPullJob(r.db.QueryRowContext(ctx,
		"SELECT "+pullJobColumns+" FROM pull_jobs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("pull job %q not found", id)
	}
	return j, err
}

// ListActive returns the jobs the scheduler should run.
func (r *PullJobRepo) ListActive(ctx context.Context) ([]*domain.PullJob, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+pullJobColumns+" FROM pull_jobs WHERE active = 1 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list pull jobs: %w", err)
	}
	defer rows.Close()

	var out []*domain.PullJob
	for rows.Next() {
		j, err := scanPullJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *PullJobRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE pull_jobs SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("update pull job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("pull job %q not found", id)
	}
	return nil
}

func scanPullJob(row rowScanner) (*domain.PullJob, error) {
	var (
		j         domain.PullJob
		path      sql.NullString
		createdAt string
	)
	if err := row.Scan(&j.ID, &j.Name, &j.ResourceID, &j.URL, &j.Schedule, &path, &j.Active, &createdAt); err != nil {
		return nil, err
	}
	j.Path = path.String
	var err error
	if j.CreatedAt, err = domain.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("pull job %s created_at: %w", j.ID, err)
	}
	return &j, nil
}
