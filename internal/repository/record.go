package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"formgrid/internal/domain"
	"formgrid/internal/filter"
)

// RecordRepo stores records for all resources in a single table with a
// JSON data column. It implements the query engine's Store interface.
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo creates a RecordRepo on the given pool.
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

const recordColumns = "id, resource_id, data, created_by, created_at, modified_at, archived"

// Find returns records of the resource matching the predicate, in
// ascending identifier order. A non-positive limit means no limit.
func (r *RecordRepo) Find(ctx context.Context, resourceID string, p *filter.Predicate, limit int) ([]*domain.Record, error) {
	clause, args, err := predicateSQL(p)
	if err != nil {
		return nil, fmt.Errorf("translate predicate: %w", err)
	}

	query := "SELECT " + recordColumns + " FROM records WHERE resource_id = ? AND " + clause + " ORDER BY id ASC"
	queryArgs := append([]any{resourceID}, args...)
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of records of the resource matching the predicate.
func (r *RecordRepo) Count(ctx context.Context, resourceID string, p *filter.Predicate) (int64, error) {
	clause, args, err := predicateSQL(p)
	if err != nil {
		return 0, fmt.Errorf("translate predicate: %w", err)
	}

	query := "SELECT COUNT(*) FROM records WHERE resource_id = ? AND " + clause
	var n int64
	if err := r.db.QueryRowContext(ctx, query, append([]any{resourceID}, args...)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Get fetches one record by identifier.
func (r *RecordRepo) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("record %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert stores a new record.
func (r *RecordRepo) Insert(ctx context.Context, rec *domain.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal record data: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO records (id, resource_id, data, created_by, created_at, modified_at, archived) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.ResourceID, string(data), rec.CreatedBy,
		domain.FormatTimestamp(rec.CreatedAt), domain.FormatTimestamp(rec.ModifiedAt), rec.Archived)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Update rewrites a record's data and modification timestamp.
func (r *RecordRepo) Update(ctx context.Context, rec *domain.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal record data: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE records SET data = ?, modified_at = ? WHERE id = ?",
		string(data), domain.FormatTimestamp(rec.ModifiedAt), rec.ID)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return requireRow(res, rec.ID)
}

// SetArchived flips the soft-delete flag.
func (r *RecordRepo) SetArchived(ctx context.Context, id string, archived bool, modifiedAt string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE records SET archived = ?, modified_at = ? WHERE id = ?", archived, modifiedAt, id)
	if err != nil {
		return fmt.Errorf("archive record: %w", err)
	}
	return requireRow(res, id)
}

// Delete permanently removes a record.
func (r *RecordRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("record %q not found", id)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		rec       domain.Record
		data      string
		createdAt string
		modified  string
	)
	if err := row.Scan(&rec.ID, &rec.ResourceID, &data, &rec.CreatedBy, &createdAt, &modified, &rec.Archived); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("unmarshal record data: %w", err)
	}
	var err error
	if rec.CreatedAt, err = domain.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("record %s created_at: %w", rec.ID, err)
	}
	if rec.ModifiedAt, err = domain.ParseTimestamp(modified); err != nil {
		return nil, fmt.Errorf("record %s modified_at: %w", rec.ID, err)
	}
	return &rec, nil
}
