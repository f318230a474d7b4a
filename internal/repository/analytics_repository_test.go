package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
)

func rosterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"student_id", "full_name", "institutional_id", "average_score", "attempts"}).
		AddRow("s-1", "A Student", "INST-1", 42.5, 4)
}

func TestRosterFiltersLevelInQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	// Both the count and the page query carry the level bucket, so the
	// total and the page describe the same filtered set.
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) FROM \(SELECT.+HAVING.+< 65.*\) roster`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT u\.id AS student_id.+GROUP BY.+HAVING.+< 65.+ORDER BY full_name`).
		WillReturnRows(rosterRows())

	low := models.ReadinessLow
	rows, total, err := repo.Roster(context.Background(), models.RosterFilter{Level: &low})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "s-1", rows[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterModerateBandIsBounded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) FROM \(SELECT.+HAVING.+>= 65 AND.+< 80.*\) roster`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`(?s)HAVING.+>= 65 AND.+< 80.+ORDER BY full_name`).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "full_name", "institutional_id", "average_score", "attempts"}))

	moderate := models.ReadinessModerate
	_, total, err := repo.Roster(context.Background(), models.RosterFilter{Level: &moderate})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterWithoutLevelSkipsHaving(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) FROM \(SELECT.+GROUP BY[^H]*\) roster`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT u\.id AS student_id.+ORDER BY full_name`).
		WillReturnRows(rosterRows())

	rows, total, err := repo.Roster(context.Background(), models.RosterFilter{Search: "Student"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
