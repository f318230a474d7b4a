package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
)

func contentRows(now time.Time, status models.ApprovalStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "body", "subject_id", "topic_id", "status", "revision_notes",
		"submission_count", "estimated_minutes", "created_by", "reviewed_by", "reviewed_at", "created_at", "updated_at",
	}).AddRow("c-1", "Cell Biology", nil, "Cells.", "s-1", nil, string(status), []byte(`[]`),
		0, 15, "f-1", nil, nil, now, now)
}

func TestContentGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM content_modules WHERE id = \$1`).
		WithArgs("c-1").
		WillReturnRows(contentRows(time.Now(), models.StatusApproved))

	module, err := repo.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Cell Biology", module.Title)
	assert.Equal(t, models.StatusApproved, module.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentListByStatusAndAuthor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM content_modules WHERE status = \$1 AND created_by = \$2`).
		WithArgs(string(models.StatusDraft), "f-1").
		WillReturnRows(countRows)
	mock.ExpectQuery(`SELECT (.+) FROM content_modules WHERE status = \$1 AND created_by = \$2 ORDER BY updated_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(string(models.StatusDraft), "f-1").
		WillReturnRows(contentRows(time.Now(), models.StatusDraft))

	draft := models.StatusDraft
	modules, total, err := repo.List(context.Background(), models.ContentFilter{Status: &draft, CreatedBy: "f-1"})
	require.NoError(t, err)
	assert.Len(t, modules, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(`UPDATE content_modules SET status = (.+) WHERE id = (.+) AND status IN \('PENDING'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "c-1",
		FromStatus: []models.ApprovalStatus{models.StatusPending},
		ToStatus:   models.StatusApproved,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentUpdateStatusLostRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	// Another reviewer moved the row first: the guard matches nothing.
	mock.ExpectExec(`UPDATE content_modules SET status = (.+) AND status IN \('PENDING'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "c-1",
		FromStatus: []models.ApprovalStatus{models.StatusPending},
		ToStatus:   models.StatusRejected,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentUpsertProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec("INSERT INTO student_progress").WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	progress := &models.StudentProgress{
		StudentID:   "st-1",
		ContentID:   "c-1",
		Completed:   true,
		CompletedAt: &now,
	}
	err := repo.UpsertProgress(context.Background(), progress)
	require.NoError(t, err)
	assert.NotEmpty(t, progress.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
