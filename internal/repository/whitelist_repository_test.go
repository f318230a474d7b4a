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

func whitelistRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "first_name", "middle_name", "last_name", "institutional_id",
		"role", "department", "status", "added_by", "created_at", "updated_at",
	}).AddRow("wl-1", "student@example.edu", "A", nil, "Student", "INST-1",
		string(models.RoleStudent), nil, string(models.WhitelistStatusPending), "admin-1", now, now)
}

func TestWhitelistFindMatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWhitelistRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM whitelist\s+WHERE lower\(email\) = lower\(\$1\) AND lower\(institutional_id\) = lower\(\$2\)`).
		WithArgs("Student@Example.EDU", "inst-1").
		WillReturnRows(whitelistRows(time.Now()))

	entry, err := repo.FindMatch(context.Background(), "Student@Example.EDU", "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "wl-1", entry.ID)
	assert.Equal(t, models.WhitelistStatusPending, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistFindMatchMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWhitelistRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM whitelist`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindMatch(context.Background(), "nobody@example.edu", "INST-404")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWhitelistRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM whitelist WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("student@example.edu").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "student@example.edu")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWhitelistRepository(db)

	mock.ExpectExec("INSERT INTO whitelist").WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.WhitelistEntry{
		Email:           "new@example.edu",
		FirstName:       "New",
		LastName:        "Student",
		InstitutionalID: "INST-2",
		Role:            models.RoleStudent,
		AddedBy:         "admin-1",
	}
	err := repo.Create(context.Background(), entry)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.WhitelistStatusPending, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
