package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cognify-api/internal/models"
)

// RoleRepository persists custom permission roles.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs the repository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a new role.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.Permissions == nil {
		role.Permissions = models.Permissions{}
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	const query = `INSERT INTO roles (id, name, description, permissions, is_system, created_at, updated_at)
	VALUES (:id, :name, :description, :permissions, :is_system, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// GetByID fetches a role plus its assigned-user count.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	const query = `SELECT r.id, r.name, r.description, r.permissions, r.is_system, r.created_at, r.updated_at,
	       (SELECT COUNT(*) FROM users u WHERE u.role_id = r.id) AS user_count
	FROM roles r WHERE r.id = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all roles with assigned-user counts.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT r.id, r.name, r.description, r.permissions, r.is_system, r.created_at, r.updated_at,
	       (SELECT COUNT(*) FROM users u WHERE u.role_id = r.id) AS user_count
	FROM roles r ORDER BY r.is_system DESC, r.name ASC`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Update persists mutable role fields.
func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	role.UpdatedAt = time.Now().UTC()
	const query = `UPDATE roles SET name = :name, description = :description,
	permissions = :permissions, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// Delete removes a role row.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
