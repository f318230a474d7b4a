package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type questionRepoStub struct {
	questions map[string]*models.BankQuestion
	deleted   []string
}

func newQuestionRepoStub() *questionRepoStub {
	return &questionRepoStub{questions: make(map[string]*models.BankQuestion)}
}

func (s *questionRepoStub) Create(ctx context.Context, question *models.BankQuestion) error {
	if question.ID == "" {
		question.ID = "question-stub"
	}
	copy := *question
	s.questions[question.ID] = &copy
	return nil
}

func (s *questionRepoStub) GetByID(ctx context.Context, id string) (*models.BankQuestion, error) {
	if q, ok := s.questions[id]; ok {
		copy := *q
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *questionRepoStub) List(ctx context.Context, filter models.BankQuestionFilter) ([]models.BankQuestion, int, error) {
	var out []models.BankQuestion
	for _, q := range s.questions {
		if filter.AuthorID != "" && q.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (s *questionRepoStub) Update(ctx context.Context, question *models.BankQuestion) error {
	copy := *question
	s.questions[question.ID] = &copy
	return nil
}

func (s *questionRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.questions, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *questionRepoStub) seed(id, author string) {
	s.questions[id] = &models.BankQuestion{
		ID:            id,
		Text:          "What is 2+2?",
		Options:       models.OptionList{"3", "4"},
		CorrectAnswer: 1,
		AuthorID:      author,
	}
}

func TestQuestionCreateValidatesCorrectAnswer(t *testing.T) {
	svc := NewQuestionService(newQuestionRepoStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateBankQuestionRequest{
		Text:          "Pick one",
		Options:       models.OptionList{"a", "b"},
		CorrectAnswer: 2,
	}, facultyClaims)
	requireCode(t, err, appErrors.ErrValidation.Code)

	// A single option is not a question.
	_, err = svc.Create(context.Background(), models.CreateBankQuestionRequest{
		Text:          "Pick one",
		Options:       models.OptionList{"a"},
		CorrectAnswer: 0,
	}, facultyClaims)
	requireCode(t, err, appErrors.ErrValidation.Code)

	question, err := svc.Create(context.Background(), models.CreateBankQuestionRequest{
		Text:          "Pick one",
		Options:       models.OptionList{"a", "b"},
		CorrectAnswer: 1,
	}, facultyClaims)
	require.NoError(t, err)
	assert.Equal(t, facultyClaims.UserID, question.AuthorID)
	assert.Equal(t, 1, question.CorrectAnswer)
}

func TestQuestionListFacultyScopedToOwn(t *testing.T) {
	repo := newQuestionRepoStub()
	repo.seed("question-1", facultyClaims.UserID)
	repo.seed("question-2", "faculty-2")
	svc := NewQuestionService(repo, nil, nil, nil)

	questions, total, err := svc.List(context.Background(), models.BankQuestionFilter{}, facultyClaims)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "question-1", questions[0].ID)

	_, total, err = svc.List(context.Background(), models.BankQuestionFilter{}, adminClaims)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestQuestionUpdateOwnershipAndIndex(t *testing.T) {
	repo := newQuestionRepoStub()
	repo.seed("question-1", "faculty-2")
	svc := NewQuestionService(repo, nil, nil, nil)

	text := "Updated"
	_, err := svc.Update(context.Background(), "question-1", models.UpdateBankQuestionRequest{Text: &text}, facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)

	// Admins edit anyone's questions.
	question, err := svc.Update(context.Background(), "question-1", models.UpdateBankQuestionRequest{Text: &text}, adminClaims)
	require.NoError(t, err)
	assert.Equal(t, "Updated", question.Text)

	// Shrinking the option list must keep the answer in range.
	short := models.OptionList{"only", "two"}
	bad := 5
	_, err = svc.Update(context.Background(), "question-1", models.UpdateBankQuestionRequest{Options: &short, CorrectAnswer: &bad}, adminClaims)
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestQuestionDeleteAdminOnly(t *testing.T) {
	repo := newQuestionRepoStub()
	repo.seed("question-1", facultyClaims.UserID)
	svc := NewQuestionService(repo, nil, nil, nil)

	// Even the author cannot delete as faculty.
	err := svc.Delete(context.Background(), "question-1", facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)

	require.NoError(t, svc.Delete(context.Background(), "question-1", adminClaims))
	require.Equal(t, []string{"question-1"}, repo.deleted)

	err = svc.Delete(context.Background(), "question-1", adminClaims)
	requireCode(t, err, appErrors.ErrNotFound.Code)
}
