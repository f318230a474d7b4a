package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type questionStore interface {
	Create(ctx context.Context, question *models.BankQuestion) error
	GetByID(ctx context.Context, id string) (*models.BankQuestion, error)
	List(ctx context.Context, filter models.BankQuestionFilter) ([]models.BankQuestion, int, error)
	Update(ctx context.Context, question *models.BankQuestion) error
	Delete(ctx context.Context, id string) error
}

// QuestionService manages the standalone question bank. Faculty work
// on their own questions; admins see and manage everything.
type QuestionService struct {
	repo      questionStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs the service.
func NewQuestionService(repo questionStore, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuestionService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// checkCorrectAnswer ensures the correct-answer index points inside
// the option list.
func checkCorrectAnswer(index int, options models.OptionList) error {
	if index < 0 || index >= len(options) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("correct_answer must be between 0 and %d", len(options)-1))
	}
	return nil
}

// Create stores a new bank question owned by the actor.
func (s *QuestionService) Create(ctx context.Context, req models.CreateBankQuestionRequest, actor *models.JWTClaims) (*models.BankQuestion, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if err := checkCorrectAnswer(req.CorrectAnswer, req.Options); err != nil {
		return nil, err
	}

	question := &models.BankQuestion{
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		AuthorID:      actor.UserID,
	}
	if err := s.repo.Create(ctx, question); err != nil {
		return nil, appErrors.Internal(err, "failed to create question")
	}
	s.record(actor.UserID, "question.create", question.ID, question.Text)
	return question, nil
}

// Get fetches one bank question.
func (s *QuestionService) Get(ctx context.Context, id string) (*models.BankQuestion, error) {
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load question")
	}
	return question, nil
}

// List returns bank questions. Faculty only see their own.
func (s *QuestionService) List(ctx context.Context, filter models.BankQuestionFilter, actor *models.JWTClaims) ([]models.BankQuestion, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleFaculty {
		filter.AuthorID = actor.UserID
	}
	questions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list questions")
	}
	return questions, total, nil
}

// Update edits a bank question. Faculty may only edit their own.
func (s *QuestionService) Update(ctx context.Context, id string, req models.UpdateBankQuestionRequest, actor *models.JWTClaims) (*models.BankQuestion, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load question")
	}
	if actor.Role == models.RoleFaculty && question.AuthorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only edit your own questions")
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		if len(*req.Options) < 2 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a question needs at least two options")
		}
		question.Options = *req.Options
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if err := checkCorrectAnswer(question.CorrectAnswer, question.Options); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, question); err != nil {
		return nil, appErrors.Internal(err, "failed to update question")
	}
	s.record(actor.UserID, "question.update", question.ID, question.Text)
	return question, nil
}

// Delete removes a bank question. Admin only.
func (s *QuestionService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins delete questions")
	}
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load question")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete question")
	}
	s.record(actor.UserID, "question.delete", question.ID, question.Text)
	return nil
}

func (s *QuestionService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(models.ActivityLog{
		UserID:   &userID,
		Action:   action,
		Target:   "question",
		TargetID: &targetID,
		Detail:   &detail,
	})
}
