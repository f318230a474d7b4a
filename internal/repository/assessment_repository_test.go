package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
)

func assessmentRows(now time.Time, status models.ApprovalStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "subject_id", "topic_id", "questions", "duration_minutes",
		"status", "revision_notes", "submission_count", "created_by", "reviewed_by", "reviewed_at", "created_at", "updated_at",
	}).AddRow("a-1", "Algebra basics", nil, "s-1", nil, []byte(`[{"id":"q1","text":"2+2?","answer":"4"}]`), 30,
		string(status), []byte(`[]`), 1, "f-1", nil, nil, now, now)
}

func TestAssessmentGetApproved(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM assessments WHERE id = \$1 AND status = \$2`).
		WithArgs("a-1", string(models.StatusApproved)).
		WillReturnRows(assessmentRows(time.Now(), models.StatusApproved))

	assessment, err := repo.GetApproved(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra basics", assessment.Title)
	require.Len(t, assessment.Questions, 1)
	assert.Equal(t, "4", assessment.Questions[0].Answer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentGetApprovedHidesDrafts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM assessments WHERE id = \$1 AND status = \$2`).
		WithArgs("a-1", string(models.StatusApproved)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetApproved(context.Background(), "a-1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentCreateSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec("INSERT INTO assessment_submissions").WillReturnResult(sqlmock.NewResult(0, 1))

	submission := &models.AssessmentSubmission{
		AssessmentID: "a-1",
		StudentID:    "st-1",
		Answers:      models.AnswerMap{"q1": "4"},
		Score:        100,
		Correct:      1,
		Total:        1,
		Passed:       true,
	}
	err := repo.CreateSubmission(context.Background(), submission)
	require.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.False(t, submission.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentUpdateStatusBumpsSubmissionCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec(`UPDATE assessments SET (.+) submission_count = submission_count \+ 1 WHERE id = (.+) AND status IN \('DRAFT','REVISION_REQUESTED'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:            "a-1",
		FromStatus:    []models.ApprovalStatus{models.StatusDraft, models.StatusRevisionRequested},
		ToStatus:      models.StatusPending,
		BumpSubmitted: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
