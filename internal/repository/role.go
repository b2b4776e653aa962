package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"formgrid/internal/domain"
)

// RoleRepo stores roles and their rules.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo creates a RoleRepo on the given pool.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

func (r *RoleRepo) Create(ctx context.Context, role *domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?)",
		role.ID, role.Name, domain.FormatTimestamp(role.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("role %q already exists", role.Name)
		}
		return fmt.Errorf("insert role: %w", err)
	}
	for i := range role.Rules {
		role.Rules[i].RoleID = role.ID
		if err := r.AddRule(ctx, &role.Rules[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddRule attaches a rule to its role.
func (r *RoleRepo) AddRule(ctx context.Context, rule *domain.RoleRule) error {
	var fields *string
	if rule.Fields != nil {
		raw, err := json.Marshal(rule.Fields)
		if err != nil {
			return fmt.Errorf("marshal rule fields: %w", err)
		}
		s := string(raw)
		fields = &s
	}
	var condition *string
	if len(rule.Condition) > 0 {
		s := string(rule.Condition)
		condition = &s
	}
	var resourceID *string
	if rule.ResourceID != "" {
		resourceID = &rule.ResourceID
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO role_rules (id, role_id, action, subject, resource_id, condition, fields) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rule.ID, rule.RoleID, rule.Action, rule.Subject, resourceID, condition, fields)
	if err != nil {
		return fmt.Errorf("insert role rule: %w", err)
	}
	return nil
}

func (r *RoleRepo) Get(ctx context.Context, id string) (*domain.Role, error) {
	var (
		role      domain.Role
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM roles WHERE id = ?", id).
		Scan(&role.ID, &role.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("role %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	if role.CreatedAt, err = domain.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("role %s created_at: %w", role.ID, err)
	}
	if role.Rules, err = r.rulesFor(ctx, role.ID); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM roles ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Role, 0, len(ids))
	for _, id := range ids {
		role, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

// ListRulesForUser returns every rule granted to the user through role
// membership. Abilities are derived from this set per request.
func (r *RoleRepo) ListRulesForUser(ctx context.Context, userID string) ([]domain.RoleRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rr.id, rr.role_id, rr.action, rr.subject, rr.resource_id, rr.condition, rr.fields
		 FROM role_rules rr
		 JOIN user_roles ur ON ur.role_id = rr.role_id
		 WHERE ur.user_id = ?
		 ORDER BY rr.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules for user: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("role %q not found", id)
	}
	return nil
}

func (r *RoleRepo) rulesFor(ctx context.Context, roleID string) ([]domain.RoleRule, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, role_id, action, subject, resource_id, condition, fields FROM role_rules WHERE role_id = ? ORDER BY id", roleID)
	if err != nil {
		return nil, fmt.Errorf("load role rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows *sql.Rows) ([]domain.RoleRule, error) {
	var out []domain.RoleRule
	for rows.Next() {
		var (
			rule       domain.RoleRule
			resourceID sql.NullString
			condition  sql.NullString
			fields     sql.NullString
		)
		if err := rows.Scan(&rule.ID, &rule.RoleID, &rule.Action, &rule.Subject, &resourceID, &condition, &fields); err != nil {
			return nil, err
		}
		rule.ResourceID = resourceID.String
		if condition.Valid {
			rule.Condition = json.RawMessage(condition.String)
		}
		if fields.Valid {
			if err := json.Unmarshal([]byte(fields.String), &rule.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal rule fields: %w", err)
			}
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
