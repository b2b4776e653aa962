package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"formgrid/internal/domain"
)

// ResourceRepo stores resource schemas.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo creates a ResourceRepo on the given pool.
func NewResourceRepo(db *sql.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

func (r *ResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	fields, err := json.Marshal(res.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO resources (id, name, fields, created_at) VALUES (?, ?, ?, ?)",
		res.ID, res.Name, string(fields), domain.FormatTimestamp(res.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("resource %q already exists", res.Name)
		}
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (r *ResourceRepo) Get(ctx context.Context, id string) (*domain.Resource, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT id, name, fields, created_at FROM resources WHERE id = ?", id), id)
}

func (r *ResourceRepo) GetByName(ctx context.Context, name string) (*domain.Resource, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT id, name, fields, created_at FROM resources WHERE name = ?", name), name)
}

func (r *ResourceRepo) List(ctx context.Context) ([]*domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, fields, created_at FROM resources ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var out []*domain.Resource
	for rows.Next() {
		res, err := r.scanOne(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateFields replaces the schema of a resource.
func (r *ResourceRepo) UpdateFields(ctx context.Context, id string, fields []domain.FieldDescriptor) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	res, err := r.db.ExecContext(ctx, "UPDATE resources SET fields = ? WHERE id = ?", string(raw), id)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("resource %q not found", id)
	}
	return nil
}

func (r *ResourceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("resource %q not found", id)
	}
	return nil
}

func (r *ResourceRepo) scanOne(row rowScanner, key string) (*domain.Resource, error) {
	var (
		res       domain.Resource
		fields    string
		createdAt string
	)
	err := row.Scan(&res.ID, &res.Name, &fields, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("resource %q not found", key)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &res.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal resource fields: %w", err)
	}
	if res.CreatedAt, err = domain.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("resource %s created_at: %w", res.ID, err)
	}
	return &res, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
