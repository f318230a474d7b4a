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

type subjectStore interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	ListTopics(ctx context.Context, subjectID string) ([]models.Topic, error)
	CreateChange(ctx context.Context, change *models.PendingSubjectChange) error
	GetChangeByID(ctx context.Context, id string) (*models.PendingSubjectChange, error)
	ListChanges(ctx context.Context, status *models.ApprovalStatus, subjectID, submittedBy string) ([]models.PendingSubjectChange, error)
	ResolveChange(ctx context.Context, params repository.ResolveChangeParams) error
	ApplyChange(ctx context.Context, subjectID string, data models.SubjectChangeData) error
}

// SubjectService manages subjects, their topic trees and the pending
// change workflow. Faculty never edit a subject directly: they submit a
// snapshot of the desired state, and the live subject only moves when
// an admin approves it.
type SubjectService struct {
	repo      subjectStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the service.
func NewSubjectService(repo subjectStore, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// Create stores a new subject (admin only).
func (s *SubjectService) Create(ctx context.Context, req models.CreateSubjectRequest, actor *models.JWTClaims) (*models.Subject, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins create subjects")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject := &models.Subject{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Status:      models.StatusApproved,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Internal(err, "failed to create subject")
	}
	s.record(actor.UserID, "subject.create", subject.ID, subject.Name)
	return subject, nil
}

// Get fetches a subject with its topic tree attached.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	topics, err := s.repo.ListTopics(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load topics")
	}
	subject.Topics = buildTopicTree(topics)
	return subject, nil
}

// List returns subjects. Students only see approved ones.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter, actor *models.JWTClaims) ([]models.Subject, int, error) {
	if actor != nil && actor.Role == models.RoleStudent {
		approved := models.StatusApproved
		filter.Status = &approved
	}
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, total, nil
}

// Update edits a subject directly (admin only).
func (s *SubjectService) Update(ctx context.Context, id string, req models.CreateSubjectRequest, actor *models.JWTClaims) (*models.Subject, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins edit subjects directly")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	subject.Name = req.Name
	subject.Code = req.Code
	subject.Description = req.Description
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Internal(err, "failed to update subject")
	}
	s.record(actor.UserID, "subject.update", subject.ID, subject.Name)
	return subject, nil
}

// Delete removes a subject (admin only).
func (s *SubjectService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins delete subjects")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load subject")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete subject")
	}
	s.record(actor.UserID, "subject.delete", id, "")
	return nil
}

// ProposeChange stores a faculty-submitted snapshot of the desired
// subject state, leaving the live subject untouched.
func (s *SubjectService) ProposeChange(ctx context.Context, subjectID string, req models.ProposeSubjectChangeRequest, actor *models.JWTClaims) (*models.PendingSubjectChange, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleFaculty {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty propose subject changes")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change payload")
	}

	if _, err := s.repo.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}

	change := &models.PendingSubjectChange{
		SubjectID: subjectID,
		ChangeData: models.SubjectChangeData{
			Name:        req.Name,
			Code:        req.Code,
			Description: req.Description,
			Topics:      req.Topics,
		},
		Status:      models.StatusPending,
		SubmittedBy: actor.UserID,
	}
	if err := s.repo.CreateChange(ctx, change); err != nil {
		return nil, appErrors.Internal(err, "failed to save change proposal")
	}
	s.record(actor.UserID, "subject.propose_change", subjectID, req.Name)
	return change, nil
}

// ListChanges returns pending changes. Faculty see only their own.
func (s *SubjectService) ListChanges(ctx context.Context, status *models.ApprovalStatus, subjectID string, actor *models.JWTClaims) ([]models.PendingSubjectChange, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	submittedBy := ""
	if actor.Role == models.RoleFaculty {
		submittedBy = actor.UserID
	}
	changes, err := s.repo.ListChanges(ctx, status, subjectID, submittedBy)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subject changes")
	}
	return changes, nil
}

// ResolveChange applies an admin decision on a pending change. Approval
// writes the snapshot onto the live subject, including a recursive
// topic-tree upsert; rejection mutates nothing. Either way the change
// is stamped with reviewer, note and time, guarded against concurrent
// resolution.
func (s *SubjectService) ResolveChange(ctx context.Context, changeID string, req models.ResolveSubjectChangeRequest, actor *models.JWTClaims) (*models.PendingSubjectChange, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins resolve subject changes")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	change, err := s.repo.GetChangeByID(ctx, changeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load subject change")
	}
	if change.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "change was already resolved")
	}

	target := models.StatusRejected
	if req.Decision == models.DecisionApprove {
		target = models.StatusApproved
	}

	now := time.Now().UTC()
	var note *string
	if req.Note != "" {
		note = &req.Note
	}
	err = s.repo.ResolveChange(ctx, repository.ResolveChangeParams{
		ID:         change.ID,
		Status:     target,
		ReviewedBy: actor.UserID,
		ReviewNote: note,
		ReviewedAt: now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "change was already resolved")
		}
		return nil, appErrors.Internal(err, "failed to resolve subject change")
	}

	if req.Decision == models.DecisionApprove {
		if err := s.repo.ApplyChange(ctx, change.SubjectID, change.ChangeData); err != nil {
			return nil, appErrors.Internal(err, "failed to apply subject change")
		}
	}

	change.Status = target
	change.ReviewedBy = &actor.UserID
	change.ReviewNote = note
	change.ReviewedAt = &now
	s.record(actor.UserID, "subject.resolve_change."+string(req.Decision), change.SubjectID, change.ChangeData.Name)
	return change, nil
}

// buildTopicTree assembles the stored topic rows into a forest ordered
// by sort_order.
func buildTopicTree(topics []models.Topic) []*models.TopicNode {
	nodes := make(map[string]*models.TopicNode, len(topics))
	for _, topic := range topics {
		nodes[topic.ID] = &models.TopicNode{
			ID:        topic.ID,
			Name:      topic.Name,
			SortOrder: topic.SortOrder,
			Status:    topic.Status,
		}
	}
	var roots []*models.TopicNode
	for _, topic := range topics {
		node := nodes[topic.ID]
		if topic.ParentID != nil {
			if parent, ok := nodes[*topic.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *SubjectService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	log := models.ActivityLog{
		UserID:   &userID,
		Action:   action,
		Target:   "subject",
		TargetID: &targetID,
	}
	if detail != "" {
		log.Detail = &detail
	}
	s.activity.Record(log)
}
