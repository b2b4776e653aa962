package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"formgrid/internal/domain"
)

// UserRepo stores platform accounts and their role membership.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo on the given pool.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, is_admin, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Email, u.IsAdmin, domain.FormatTimestamp(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("user %q already exists", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	for _, roleID := range u.RoleIDs {
		if err := r.AssignRole(ctx, u.ID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.scanOne(ctx, r.db.QueryRowContext(ctx,
		"SELECT id, name, email, is_admin, created_at FROM users WHERE id = ?", id), id)
}

// GetByEmail resolves the account for an authenticated identity.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(ctx, r.db.QueryRowContext(ctx,
		"SELECT id, name, email, is_admin, created_at FROM users WHERE email = ?", email), email)
}

func (r *UserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, roleID)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *UserRepo) UnassignRole(ctx context.Context, userID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM user_roles WHERE user_id = ? AND role_id = ?", userID, roleID)
	if err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	return nil
}

func (r *UserRepo) scanOne(ctx context.Context, row rowScanner, key string) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("user %q not found", key)
	}
	if err != nil {
		return nil, err
	}
	if u.CreatedAt, err = domain.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("user %s created_at: %w", u.ID, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT role_id FROM user_roles WHERE user_id = ?", u.ID)
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, err
		}
		u.RoleIDs = append(u.RoleIDs, roleID)
	}
	return &u, rows.Err()
}
