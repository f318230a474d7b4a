package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/repository"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type contentStore interface {
	Create(ctx context.Context, module *models.ContentModule) error
	GetByID(ctx context.Context, id string) (*models.ContentModule, error)
	List(ctx context.Context, filter models.ContentFilter) ([]models.ContentModule, int, error)
	Update(ctx context.Context, module *models.ContentModule) error
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
	Delete(ctx context.Context, id string) error
	UpsertProgress(ctx context.Context, progress *models.StudentProgress) error
	ListProgress(ctx context.Context, studentID string) ([]models.StudentProgress, error)
}

// ContentService manages learning modules and their review workflow.
type ContentService struct {
	repo      contentStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs the service.
func NewContentService(repo contentStore, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ContentService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// Create stores a new module. Admin writes publish immediately.
func (s *ContentService) Create(ctx context.Context, req models.CreateContentRequest, actor *models.JWTClaims) (*models.ContentModule, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}

	module := &models.ContentModule{
		Title:        req.Title,
		Description:  req.Description,
		Body:         req.Body,
		SubjectID:    req.SubjectID,
		TopicID:      req.TopicID,
		EstimatedMin: req.EstimatedMin,
		Status:       statusForCreate(actor.Role),
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, module); err != nil {
		return nil, appErrors.Internal(err, "failed to create content module")
	}
	s.record(actor.UserID, "content.create", module.ID, module.Title)
	return module, nil
}

// Get fetches one module. Students only see approved modules.
func (s *ContentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ContentModule, error) {
	module, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load content module")
	}
	if actor != nil && actor.Role == models.RoleStudent && module.Status != models.StatusApproved {
		return nil, appErrors.ErrNotFound
	}
	return module, nil
}

// List returns modules matching the filter. Students see only approved
// items; faculty see only their own unless an explicit status scope is
// already author-bound.
func (s *ContentService) List(ctx context.Context, filter models.ContentFilter, actor *models.JWTClaims) ([]models.ContentModule, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin:
		// unrestricted
	case models.RoleFaculty:
		filter.CreatedBy = actor.UserID
	case models.RoleStudent:
		approved := models.StatusApproved
		filter.Status = &approved
		filter.CreatedBy = ""
	default:
		return nil, 0, appErrors.ErrForbidden
	}
	modules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list content modules")
	}
	return modules, total, nil
}

// Update edits a module. Faculty may only edit their own, and cannot
// self-publish.
func (s *ContentService) Update(ctx context.Context, id string, req models.UpdateContentRequest, actor *models.JWTClaims) (*models.ContentModule, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	module, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load content module")
	}
	if actor.Role == models.RoleFaculty && module.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot edit content authored by someone else")
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Description != nil {
		module.Description = req.Description
	}
	if req.Body != nil {
		module.Body = *req.Body
	}
	if req.TopicID != nil {
		module.TopicID = req.TopicID
	}
	if req.EstimatedMin != nil {
		module.EstimatedMin = *req.EstimatedMin
	}
	status, err := statusForUpdate(actor.Role, req.Status, module.Status)
	if err != nil {
		return nil, err
	}
	module.Status = status

	if err := s.repo.Update(ctx, module); err != nil {
		return nil, appErrors.Internal(err, "failed to update content module")
	}
	s.record(actor.UserID, "content.update", module.ID, module.Title)
	return module, nil
}

// SubmitForReview moves an authored draft into the review queue and
// bumps the submission counter.
func (s *ContentService) SubmitForReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.ContentModule, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	module, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load content module")
	}
	if err := checkSubmit(workflowItem{Status: module.Status, CreatedBy: module.CreatedBy}, actor.UserID); err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:            module.ID,
		FromStatus:    []models.ApprovalStatus{models.StatusDraft, models.StatusRevisionRequested},
		ToStatus:      models.StatusPending,
		BumpSubmitted: true,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "content was updated concurrently")
		}
		return nil, appErrors.Internal(err, "failed to submit content for review")
	}
	module.Status = models.StatusPending
	module.SubmissionCount++
	s.record(actor.UserID, "content.submit", module.ID, module.Title)
	return module, nil
}

// Review applies an admin decision on a pending module or removal
// request. The conditional status update makes concurrent reviews
// race-safe: the second reviewer gets a conflict.
func (s *ContentService) Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.ContentModule, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins review content")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	module, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load content module")
	}

	target, deleteItem, err := decideTransition(module.Status, req.Decision)
	if err != nil {
		return nil, err
	}

	if deleteItem {
		if err := s.repo.Delete(ctx, module.ID); err != nil {
			return nil, appErrors.Internal(err, "failed to remove content module")
		}
		s.record(actor.UserID, "content.removal_approved", module.ID, module.Title)
		return module, nil
	}

	now := time.Now().UTC()
	params := repository.UpdateStatusParams{
		ID:         module.ID,
		FromStatus: []models.ApprovalStatus{module.Status},
		ToStatus:   target,
		ReviewedBy: &actor.UserID,
		ReviewedAt: &now,
	}
	if req.Decision == models.DecisionRequestRevision {
		notes := append(module.RevisionNotes, models.RevisionNote{
			Note: req.Note,
			By:   actor.UserID,
			Date: now,
		})
		params.RevisionNotes = &notes
		module.RevisionNotes = notes
	}
	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "content was already reviewed")
		}
		return nil, appErrors.Internal(err, "failed to apply review decision")
	}
	module.Status = target
	module.ReviewedBy = &actor.UserID
	module.ReviewedAt = &now
	s.record(actor.UserID, "content.review."+string(req.Decision), module.ID, module.Title)
	return module, nil
}

// RequestRemoval asks to take down a published module.
func (s *ContentService) RequestRemoval(ctx context.Context, id string, actor *models.JWTClaims) (*models.ContentModule, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	module, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load content module")
	}
	if err := checkRemovalRequest(workflowItem{Status: module.Status, CreatedBy: module.CreatedBy}, actor.UserID); err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:         module.ID,
		FromStatus: []models.ApprovalStatus{models.StatusApproved},
		ToStatus:   models.StatusRemovalPending,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "content was updated concurrently")
		}
		return nil, appErrors.Internal(err, "failed to request content removal")
	}
	module.Status = models.StatusRemovalPending
	s.record(actor.UserID, "content.request_removal", module.ID, module.Title)
	return module, nil
}

// Delete removes an unpublished module. Faculty can only delete their own.
func (s *ContentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	module, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load content module")
	}
	onlyOwn := actor.Role != models.RoleAdmin
	if err := checkDelete(workflowItem{Status: module.Status, CreatedBy: module.CreatedBy}, actor.UserID, onlyOwn); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, module.ID); err != nil {
		return appErrors.Internal(err, "failed to delete content module")
	}
	s.record(actor.UserID, "content.delete", module.ID, module.Title)
	return nil
}

// MarkComplete records a student finishing a module.
func (s *ContentService) MarkComplete(ctx context.Context, contentID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "only students track reading progress")
	}
	module, err := s.repo.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load content module")
	}
	if module.Status != models.StatusApproved {
		return appErrors.ErrNotFound
	}

	now := time.Now().UTC()
	progress := &models.StudentProgress{
		StudentID:   actor.UserID,
		ContentID:   contentID,
		Completed:   true,
		CompletedAt: &now,
	}
	if err := s.repo.UpsertProgress(ctx, progress); err != nil {
		return appErrors.Internal(err, "failed to save progress")
	}
	return nil
}

// Progress returns the student's completion map keyed by content id.
func (s *ContentService) Progress(ctx context.Context, actor *models.JWTClaims) (map[string]bool, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rows, err := s.repo.ListProgress(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load progress")
	}
	progress := make(map[string]bool, len(rows))
	for _, row := range rows {
		progress[row.ContentID] = row.Completed
	}
	return progress, nil
}

func (s *ContentService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(models.ActivityLog{
		UserID:   &userID,
		Action:   action,
		Target:   "content",
		TargetID: &targetID,
		Detail:   &detail,
	})
}
