package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type verificationContentStore interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.ContentModule, int, error)
}

type verificationAssessmentStore interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error)
}

type verificationChangeStore interface {
	ListChanges(ctx context.Context, status *models.ApprovalStatus, subjectID, submittedBy string) ([]models.PendingSubjectChange, error)
}

type verificationUserStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// VerificationQueue is everything awaiting review, in one payload.
type VerificationQueue struct {
	Content        []models.ContentModule        `json:"content"`
	Assessments    []models.Assessment           `json:"assessments"`
	SubjectChanges []models.PendingSubjectChange `json:"subject_changes"`
	Users          []models.User                 `json:"users,omitempty"`
}

// VerificationService assembles the review queues. Admins see the
// whole platform; faculty see only their own submissions.
type VerificationService struct {
	content     verificationContentStore
	assessments verificationAssessmentStore
	changes     verificationChangeStore
	users       verificationUserStore
	logger      *zap.Logger
}

// NewVerificationService constructs the service.
func NewVerificationService(content verificationContentStore, assessments verificationAssessmentStore, changes verificationChangeStore, users verificationUserStore, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		content:     content,
		assessments: assessments,
		changes:     changes,
		users:       users,
		logger:      logger,
	}
}

// Queue returns the pending items visible to the actor.
func (s *VerificationService) Queue(ctx context.Context, actor *models.JWTClaims) (*VerificationQueue, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	pending := models.StatusPending
	createdBy := ""
	submittedBy := ""
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleFaculty:
		createdBy = actor.UserID
		submittedBy = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}

	queue := &VerificationQueue{}

	content, _, err := s.content.List(ctx, models.ContentFilter{Status: &pending, CreatedBy: createdBy, PageSize: 100})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending content")
	}
	queue.Content = content

	assessments, _, err := s.assessments.List(ctx, models.AssessmentFilter{Status: &pending, CreatedBy: createdBy, PageSize: 100})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending assessments")
	}
	queue.Assessments = assessments

	changes, err := s.changes.ListChanges(ctx, &pending, "", submittedBy)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending subject changes")
	}
	queue.SubjectChanges = changes

	if actor.Role == models.RoleAdmin {
		pendingUsers := models.UserStatusPending
		users, _, err := s.users.List(ctx, models.UserFilter{Status: &pendingUsers, PageSize: 100})
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load pending users")
		}
		queue.Users = users
	}

	return queue, nil
}
