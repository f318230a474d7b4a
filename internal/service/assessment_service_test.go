package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/repository"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type assessmentRepoStub struct {
	assessments map[string]*models.Assessment
	submissions []*models.AssessmentSubmission
}

func newAssessmentRepoStub() *assessmentRepoStub {
	return &assessmentRepoStub{assessments: make(map[string]*models.Assessment)}
}

func (s *assessmentRepoStub) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = "assessment-1"
	}
	s.assessments[assessment.ID] = assessment
	return nil
}

func (s *assessmentRepoStub) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := s.assessments[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assessmentRepoStub) GetApproved(ctx context.Context, id string) (*models.Assessment, error) {
	a, ok := s.assessments[id]
	if !ok || a.Status != models.StatusApproved {
		return nil, sql.ErrNoRows
	}
	copy := *a
	return &copy, nil
}

func (s *assessmentRepoStub) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error) {
	out := make([]models.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (s *assessmentRepoStub) Update(ctx context.Context, assessment *models.Assessment) error {
	s.assessments[assessment.ID] = assessment
	return nil
}

func (s *assessmentRepoStub) UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error {
	a, ok := s.assessments[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	allowed := false
	for _, from := range params.FromStatus {
		if a.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return sql.ErrNoRows
	}
	a.Status = params.ToStatus
	if params.BumpSubmitted {
		a.SubmissionCount++
	}
	if params.RevisionNotes != nil {
		a.RevisionNotes = *params.RevisionNotes
	}
	return nil
}

func (s *assessmentRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.assessments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.assessments, id)
	return nil
}

func (s *assessmentRepoStub) CreateSubmission(ctx context.Context, submission *models.AssessmentSubmission) error {
	submission.ID = "submission-1"
	s.submissions = append(s.submissions, submission)
	return nil
}

func (s *assessmentRepoStub) LatestSubmission(ctx context.Context, assessmentID, studentID string) (*models.AssessmentSubmission, error) {
	for i := len(s.submissions) - 1; i >= 0; i-- {
		sub := s.submissions[i]
		if sub.AssessmentID == assessmentID && sub.StudentID == studentID {
			copy := *sub
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type gradesStub struct {
	grade float64
}

func (g gradesStub) PassingGrade(ctx context.Context) float64 { return g.grade }

type recorderStub struct {
	logs []models.ActivityLog
}

func (r *recorderStub) Record(log models.ActivityLog) {
	r.logs = append(r.logs, log)
}

func approvedAssessment(questions models.QuestionList) *models.Assessment {
	return &models.Assessment{
		ID:        "assessment-1",
		Title:     "Algebra basics",
		SubjectID: "subject-1",
		Questions: questions,
		Status:    models.StatusApproved,
		CreatedBy: "faculty-1",
	}
}

func TestGradeAnswers(t *testing.T) {
	questions := models.QuestionList{
		{ID: "q1", Answer: "Paris"},
		{ID: "q2", Answer: "4"},
		{ID: "q3", Answer: "true"},
	}

	correct, total, score := gradeAnswers(questions, models.AnswerMap{
		"q1": "  paris ", // trimmed, case-insensitive
		"q2": "5",
		"q3": "TRUE",
	})
	require.Equal(t, 2, correct)
	require.Equal(t, 3, total)
	require.InDelta(t, 66.67, score, 0.001)
}

func TestGradeAnswersEmptyQuestionSet(t *testing.T) {
	correct, total, score := gradeAnswers(models.QuestionList{}, models.AnswerMap{"q1": "x"})
	require.Zero(t, correct)
	require.Zero(t, total)
	require.Zero(t, score)
}

func TestGradeAnswersMissingAnswersCountWrong(t *testing.T) {
	questions := models.QuestionList{
		{ID: "q1", Answer: "a"},
		{ID: "q2", Answer: "b"},
	}
	correct, total, score := gradeAnswers(questions, models.AnswerMap{"q1": "a"})
	require.Equal(t, 1, correct)
	require.Equal(t, 2, total)
	require.InDelta(t, 50.0, score, 0.001)
}

func TestAssessmentSubmitGradesAndPersists(t *testing.T) {
	repo := newAssessmentRepoStub()
	repo.assessments["assessment-1"] = approvedAssessment(models.QuestionList{
		{ID: "q1", Answer: "a"},
		{ID: "q2", Answer: "b"},
	})
	recorder := &recorderStub{}
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, recorder, nil, nil, nil)

	student := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	result, err := svc.Submit(context.Background(), "assessment-1", models.SubmitAssessmentRequest{
		Answers: models.AnswerMap{"q1": "a", "q2": "b"},
	}, student)
	require.NoError(t, err)
	require.Equal(t, 100.0, result.Score)
	require.True(t, result.Passed)
	require.Equal(t, 75.0, result.PassingGrade)
	require.Len(t, repo.submissions, 1)

	// Retakes are unlimited; a second attempt stores a new row.
	result, err = svc.Submit(context.Background(), "assessment-1", models.SubmitAssessmentRequest{
		Answers: models.AnswerMap{"q1": "a"},
	}, student)
	require.NoError(t, err)
	require.False(t, result.Passed)
	require.Len(t, repo.submissions, 2)
}

func TestAssessmentSubmitRejectsNonStudents(t *testing.T) {
	repo := newAssessmentRepoStub()
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "assessment-1", models.SubmitAssessmentRequest{
		Answers: models.AnswerMap{},
	}, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestAssessmentSubmitUnapprovedReadsAsNotFound(t *testing.T) {
	repo := newAssessmentRepoStub()
	draft := approvedAssessment(models.QuestionList{{ID: "q1", Answer: "a"}})
	draft.Status = models.StatusDraft
	repo.assessments[draft.ID] = draft
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), draft.ID, models.SubmitAssessmentRequest{
		Answers: models.AnswerMap{"q1": "a"},
	}, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestAssessmentGetSanitizesForStudents(t *testing.T) {
	repo := newAssessmentRepoStub()
	repo.assessments["assessment-1"] = approvedAssessment(models.QuestionList{
		{ID: "q1", Text: "2+2?", Answer: "4"},
	})
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, nil, nil, nil, nil)

	assessment, err := svc.Get(context.Background(), "assessment-1", &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Empty(t, assessment.Questions[0].Answer)

	assessment, err = svc.Get(context.Background(), "assessment-1", &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})
	require.NoError(t, err)
	require.Equal(t, "4", assessment.Questions[0].Answer)
}

func TestAssessmentSubmitForReviewBumpsCount(t *testing.T) {
	repo := newAssessmentRepoStub()
	draft := approvedAssessment(nil)
	draft.Status = models.StatusDraft
	draft.Questions = models.QuestionList{{ID: "q1", Answer: "a"}}
	repo.assessments[draft.ID] = draft
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, nil, nil, nil, nil)

	author := &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty}
	updated, err := svc.SubmitForReview(context.Background(), draft.ID, author)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, updated.Status)
	require.Equal(t, 1, updated.SubmissionCount)

	// Already pending: the guard reports a conflict.
	_, err = svc.SubmitForReview(context.Background(), draft.ID, author)
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestAssessmentReviewRequestRevisionAppendsNote(t *testing.T) {
	repo := newAssessmentRepoStub()
	pending := approvedAssessment(models.QuestionList{{ID: "q1", Answer: "a"}})
	pending.Status = models.StatusPending
	repo.assessments[pending.ID] = pending
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, nil, nil, nil, nil)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	reviewed, err := svc.Review(context.Background(), pending.ID, models.ReviewRequest{
		Decision: models.DecisionRequestRevision,
		Note:     "add more questions",
	}, admin)
	require.NoError(t, err)
	require.Equal(t, models.StatusRevisionRequested, reviewed.Status)
	require.Len(t, reviewed.RevisionNotes, 1)
	require.Equal(t, "add more questions", reviewed.RevisionNotes[0].Note)
	require.Equal(t, "admin-1", reviewed.RevisionNotes[0].By)
}

func TestAssessmentReviewRequiresAdmin(t *testing.T) {
	repo := newAssessmentRepoStub()
	svc := NewAssessmentService(repo, gradesStub{grade: 75}, nil, nil, nil, nil)

	_, err := svc.Review(context.Background(), "assessment-1", models.ReviewRequest{
		Decision: models.DecisionApprove,
	}, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}
