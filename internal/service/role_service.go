package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type roleStore interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
}

type roleUserCounter interface {
	CountByRoleID(ctx context.Context, roleID string) (int, error)
}

// RoleService manages custom permission roles. System roles are
// immutable, and a role with users assigned cannot be deleted.
type RoleService struct {
	repo      roleStore
	users     roleUserCounter
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs the service.
func NewRoleService(repo roleStore, users roleUserCounter, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RoleService{repo: repo, users: users, activity: activity, validator: validate, logger: logger}
}

// Create stores a new custom role.
func (s *RoleService) Create(ctx context.Context, req models.CreateRoleRequest, actor *models.JWTClaims) (*models.Role, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins manage roles")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	role := &models.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		IsSystem:    false,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, appErrors.Internal(err, "failed to create role")
	}
	s.record(actor.UserID, "role.create", role.ID, role.Name)
	return role, nil
}

// Get fetches a role.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load role")
	}
	return role, nil
}

// List returns all roles.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list roles")
	}
	return roles, nil
}

// Update edits a custom role. System roles are immutable.
func (s *RoleService) Update(ctx context.Context, id string, req models.UpdateRoleRequest, actor *models.JWTClaims) (*models.Role, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins manage roles")
	}

	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load role")
	}
	if role.IsSystem {
		return nil, appErrors.Clone(appErrors.ErrConflict, "system roles cannot be modified")
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = req.Description
	}
	if req.Permissions != nil {
		role.Permissions = *req.Permissions
	}
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, appErrors.Internal(err, "failed to update role")
	}
	s.record(actor.UserID, "role.update", role.ID, role.Name)
	return role, nil
}

// Delete removes a custom role with no users assigned.
func (s *RoleService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins manage roles")
	}

	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load role")
	}
	if role.IsSystem {
		return appErrors.Clone(appErrors.ErrConflict, "system roles cannot be deleted")
	}
	count, err := s.users.CountByRoleID(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to count role members")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "role has users assigned and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete role")
	}
	s.record(actor.UserID, "role.delete", role.ID, role.Name)
	return nil
}

func (s *RoleService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(models.ActivityLog{
		UserID:   &userID,
		Action:   action,
		Target:   "role",
		TargetID: &targetID,
		Detail:   &detail,
	})
}
