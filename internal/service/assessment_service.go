package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/repository"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type assessmentStore interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	GetApproved(ctx context.Context, id string) (*models.Assessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
	Delete(ctx context.Context, id string) error
	CreateSubmission(ctx context.Context, submission *models.AssessmentSubmission) error
	LatestSubmission(ctx context.Context, assessmentID, studentID string) (*models.AssessmentSubmission, error)
}

type passingGradeProvider interface {
	PassingGrade(ctx context.Context) float64
}

// AssessmentService manages assessments, their review workflow and
// student grading.
type AssessmentService struct {
	repo      assessmentStore
	grades    passingGradeProvider
	activity  ActivityRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the service.
func NewAssessmentService(repo assessmentStore, grades passingGradeProvider, activity ActivityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssessmentService{repo: repo, grades: grades, activity: activity, metrics: metrics, validator: validate, logger: logger}
}

// Create stores a new assessment. Admin writes publish immediately.
func (s *AssessmentService) Create(ctx context.Context, req models.CreateAssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}

	assessment := &models.Assessment{
		Title:           req.Title,
		Description:     req.Description,
		SubjectID:       req.SubjectID,
		TopicID:         req.TopicID,
		Questions:       req.Questions,
		DurationMinutes: req.DurationMinutes,
		Status:          statusForCreate(actor.Role),
		CreatedBy:       actor.UserID,
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assessment")
	}
	s.record(actor.UserID, "assessment.create", assessment.ID, assessment.Title)
	return assessment, nil
}

// Get fetches one assessment. Students receive the sanitized question
// set of an approved assessment; anything else reads as not found.
func (s *AssessmentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Assessment, error) {
	if actor != nil && actor.Role == models.RoleStudent {
		assessment, err := s.repo.GetApproved(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Internal(err, "failed to load assessment")
		}
		assessment.Questions = assessment.Questions.Sanitized()
		return assessment, nil
	}

	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}
	return assessment, nil
}

// List returns assessments scoped by role, mirroring ContentService.List.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter, actor *models.JWTClaims) ([]models.Assessment, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleFaculty:
		filter.CreatedBy = actor.UserID
	case models.RoleStudent:
		approved := models.StatusApproved
		filter.Status = &approved
		filter.CreatedBy = ""
	default:
		return nil, 0, appErrors.ErrForbidden
	}
	assessments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list assessments")
	}
	if actor.Role == models.RoleStudent {
		for i := range assessments {
			assessments[i].Questions = assessments[i].Questions.Sanitized()
		}
	}
	return assessments, total, nil
}

// Update edits an assessment. Faculty may only edit their own and
// cannot self-publish.
func (s *AssessmentService) Update(ctx context.Context, id string, req models.UpdateAssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}
	if actor.Role == models.RoleFaculty && assessment.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot edit assessments authored by someone else")
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.TopicID != nil {
		assessment.TopicID = req.TopicID
	}
	if req.Questions != nil {
		assessment.Questions = *req.Questions
	}
	if req.DurationMinutes != nil {
		assessment.DurationMinutes = *req.DurationMinutes
	}
	status, err := statusForUpdate(actor.Role, req.Status, assessment.Status)
	if err != nil {
		return nil, err
	}
	assessment.Status = status

	if err := s.repo.Update(ctx, assessment); err != nil {
		return nil, appErrors.Internal(err, "failed to update assessment")
	}
	s.record(actor.UserID, "assessment.update", assessment.ID, assessment.Title)
	return assessment, nil
}

// SubmitForReview moves an authored draft into the review queue.
func (s *AssessmentService) SubmitForReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.Assessment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}
	if err := checkSubmit(workflowItem{Status: assessment.Status, CreatedBy: assessment.CreatedBy}, actor.UserID); err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:            assessment.ID,
		FromStatus:    []models.ApprovalStatus{models.StatusDraft, models.StatusRevisionRequested},
		ToStatus:      models.StatusPending,
		BumpSubmitted: true,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assessment was updated concurrently")
		}
		return nil, appErrors.Internal(err, "failed to submit assessment for review")
	}
	assessment.Status = models.StatusPending
	assessment.SubmissionCount++
	s.record(actor.UserID, "assessment.submit", assessment.ID, assessment.Title)
	return assessment, nil
}

// Review applies an admin decision on a pending assessment.
func (s *AssessmentService) Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.Assessment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins review assessments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}

	target, deleteItem, err := decideTransition(assessment.Status, req.Decision)
	if err != nil {
		return nil, err
	}
	if deleteItem {
		if err := s.repo.Delete(ctx, assessment.ID); err != nil {
			return nil, appErrors.Internal(err, "failed to remove assessment")
		}
		s.record(actor.UserID, "assessment.removal_approved", assessment.ID, assessment.Title)
		return assessment, nil
	}

	now := time.Now().UTC()
	params := repository.UpdateStatusParams{
		ID:         assessment.ID,
		FromStatus: []models.ApprovalStatus{assessment.Status},
		ToStatus:   target,
		ReviewedBy: &actor.UserID,
		ReviewedAt: &now,
	}
	if req.Decision == models.DecisionRequestRevision {
		notes := append(assessment.RevisionNotes, models.RevisionNote{
			Note: req.Note,
			By:   actor.UserID,
			Date: now,
		})
		params.RevisionNotes = &notes
		assessment.RevisionNotes = notes
	}
	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assessment was already reviewed")
		}
		return nil, appErrors.Internal(err, "failed to apply review decision")
	}
	assessment.Status = target
	assessment.ReviewedBy = &actor.UserID
	assessment.ReviewedAt = &now
	s.record(actor.UserID, "assessment.review."+string(req.Decision), assessment.ID, assessment.Title)
	return assessment, nil
}

// Delete removes an unpublished assessment.
func (s *AssessmentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load assessment")
	}
	onlyOwn := actor.Role != models.RoleAdmin
	if err := checkDelete(workflowItem{Status: assessment.Status, CreatedBy: assessment.CreatedBy}, actor.UserID, onlyOwn); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, assessment.ID); err != nil {
		return appErrors.Internal(err, "failed to delete assessment")
	}
	s.record(actor.UserID, "assessment.delete", assessment.ID, assessment.Title)
	return nil
}

// Submit grades a student's answer sheet against an approved assessment
// and stores one immutable attempt row. Retakes are unlimited.
func (s *AssessmentService) Submit(ctx context.Context, id string, req models.SubmitAssessmentRequest, actor *models.JWTClaims) (*models.SubmissionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students submit assessments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	assessment, err := s.repo.GetApproved(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}

	correct, total, score := gradeAnswers(assessment.Questions, req.Answers)
	passingGrade := s.grades.PassingGrade(ctx)
	passed := score >= passingGrade

	submission := &models.AssessmentSubmission{
		AssessmentID: assessment.ID,
		StudentID:    actor.UserID,
		Answers:      req.Answers,
		Score:        score,
		Correct:      correct,
		Total:        total,
		Passed:       passed,
		TimeTakenS:   req.TimeTakenS,
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, appErrors.Internal(err, "failed to save submission")
	}
	if s.metrics != nil {
		s.metrics.RecordGrading(passed)
	}
	s.record(actor.UserID, "assessment.submit_answers", assessment.ID, assessment.Title)

	return &models.SubmissionResult{
		SubmissionID: submission.ID,
		AssessmentID: assessment.ID,
		Score:        score,
		Correct:      correct,
		Total:        total,
		Passed:       passed,
		PassingGrade: passingGrade,
		SubmittedAt:  submission.SubmittedAt,
	}, nil
}

// LatestResult returns the student's newest attempt on an assessment.
func (s *AssessmentService) LatestResult(ctx context.Context, id string, actor *models.JWTClaims) (*models.AssessmentSubmission, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	submission, err := s.repo.LatestSubmission(ctx, id, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load submission")
	}
	return submission, nil
}

// gradeAnswers scores an answer sheet. Comparison is case-insensitive
// on trimmed strings; the score is correct/total*100 rounded to two
// decimals, zero when the assessment has no questions.
func gradeAnswers(questions models.QuestionList, answers models.AnswerMap) (correct, total int, score float64) {
	total = len(questions)
	for _, question := range questions {
		given, ok := answers[question.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(question.Answer)) {
			correct++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	score = math.Round(float64(correct)/float64(total)*100*100) / 100
	return correct, total, score
}

func (s *AssessmentService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(models.ActivityLog{
		UserID:   &userID,
		Action:   action,
		Target:   "assessment",
		TargetID: &targetID,
		Detail:   &detail,
	})
}
