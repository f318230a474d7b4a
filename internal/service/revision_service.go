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

type revisionStore interface {
	Create(ctx context.Context, revision *models.Revision) error
	GetByID(ctx context.Context, id string) (*models.Revision, error)
	List(ctx context.Context, filter models.RevisionFilter) ([]models.Revision, int, error)
	Resolve(ctx context.Context, id, resolvedBy string, notes *string) error
}

// RevisionService manages change request tickets filed against
// published content and assessments.
type RevisionService struct {
	repo      revisionStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRevisionService constructs the service.
func NewRevisionService(repo revisionStore, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *RevisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RevisionService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// Create files a new ticket.
func (s *RevisionService) Create(ctx context.Context, req models.CreateRevisionRequest, actor *models.JWTClaims) (*models.Revision, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revision payload")
	}

	revision := &models.Revision{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Title:      req.Title,
		Details:    req.Details,
		Status:     models.RevisionStatusPending,
		RaisedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, revision); err != nil {
		return nil, appErrors.Internal(err, "failed to create revision ticket")
	}
	s.record(actor.UserID, "revision.create", revision.ID, revision.Title)
	return revision, nil
}

// List returns tickets. Faculty see tickets against their own items.
func (s *RevisionService) List(ctx context.Context, filter models.RevisionFilter, actor *models.JWTClaims) ([]models.Revision, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleFaculty {
		filter.OwnerID = actor.UserID
	}
	revisions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list revisions")
	}
	return revisions, total, nil
}

// Get fetches one ticket.
func (s *RevisionService) Get(ctx context.Context, id string) (*models.Revision, error) {
	revision, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load revision")
	}
	return revision, nil
}

// Resolve closes a pending ticket with optional notes.
func (s *RevisionService) Resolve(ctx context.Context, id string, req models.ResolveRevisionRequest, actor *models.JWTClaims) (*models.Revision, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	revision, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load revision")
	}
	if revision.Status != models.RevisionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "revision was already resolved")
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}
	if err := s.repo.Resolve(ctx, id, actor.UserID, notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "revision was already resolved")
		}
		return nil, appErrors.Internal(err, "failed to resolve revision")
	}
	revision.Status = models.RevisionStatusResolved
	revision.ResolvedBy = &actor.UserID
	revision.Notes = notes
	s.record(actor.UserID, "revision.resolve", revision.ID, revision.Title)
	return revision, nil
}

func (s *RevisionService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(models.ActivityLog{
		UserID:   &userID,
		Action:   action,
		Target:   "revision",
		TargetID: &targetID,
		Detail:   &detail,
	})
}
