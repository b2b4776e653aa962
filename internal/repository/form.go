package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"formgrid/internal/domain"
)

// FormRepo stores form definitions.
type FormRepo struct {
	db *sql.DB
}

// NewFormRepo creates a FormRepo on the given pool.
func NewFormRepo(db *sql.DB) *FormRepo {
	return &FormRepo{db: db}
}

const formColumns = "id, resource_id, name, core, fields, created_at"

func (r *FormRepo) Create(ctx context.Context, f *domain.Form) error {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO forms (id, resource_id, name, core, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		f.ID, f.ResourceID, f.Name, f.Core, string(fields), domain.FormatTimestamp(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	return nil
}

func (r *FormRepo) Get(ctx context.Context, id string) (*domain.Form, error) {
	f, err := scanForm(r.db.QueryRowContext(ctx,
		"SELECT "+formColumns+" FROM forms WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("form %q not found", id)
	}
	return f, err
}

// ListForResource returns the forms defined over a resource.
func (r *FormRepo) ListForResource(ctx context.Context, resourceID string) ([]*domain.Form, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+formColumns+" FROM forms WHERE resource_id = ? ORDER BY name", resourceID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var out []*domain.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FormRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM forms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("form %q not found", id)
	}
	return nil
}

func scanForm(row rowScanner) (*domain.Form, error) {
	var (
		f         domain.Form
		fields    string
		createdAt string
	)
	if err := row.Scan(&f.ID, &f.ResourceID, &f.Name, &f.Core, &fields, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &f.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal form fields: %w", err)
	}
	var err error
	if f.CreatedAt, err = domain.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("form %s created_at: %w", f.ID, err)
	}
	return &f, nil
}
