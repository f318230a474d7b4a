package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "middle_name", "last_name", "institutional_id",
		"role", "role_id", "department", "status", "last_login", "login_count", "created_at", "updated_at",
	}).AddRow("u-1", "user@example.edu", "hash", "A", nil, "User", "INST-1",
		string(models.RoleFaculty), nil, nil, string(models.UserStatusActive), now, 3, now, now)
}

func TestGetByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("user@example.edu").
		WillReturnRows(userRows(now))

	user, err := repo.GetByEmail(context.Background(), "user@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "user@example.edu", user.Email)
	assert.Equal(t, models.RoleFaculty, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromWhitelistCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE whitelist SET status").
		WithArgs(string(models.WhitelistStatusRegistered), sqlmock.AnyArg(), "wl-1", string(models.WhitelistStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &models.User{
		Email:           "new@example.edu",
		PasswordHash:    "hash",
		FirstName:       "New",
		LastName:        "Student",
		InstitutionalID: "INST-1",
		Role:            models.RoleStudent,
	}
	err := repo.CreateFromWhitelist(context.Background(), user, "wl-1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.UserStatusPending, user.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromWhitelistRollsBackOnClaimedEntry(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	// The entry was already flipped by a concurrent registration.
	mock.ExpectExec("UPDATE whitelist SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateFromWhitelist(context.Background(), &models.User{
		Email:        "race@example.edu",
		PasswordHash: "hash",
		Role:         models.RoleStudent,
	}, "wl-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already claimed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role = \$1`).
		WithArgs(string(models.RoleFaculty)).
		WillReturnRows(countRows)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE role = \$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(string(models.RoleFaculty)).
		WillReturnRows(userRows(now))

	role := models.RoleFaculty
	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users SET last_login = \$1, login_count = login_count \+ 1 WHERE id = \$2`).
		WithArgs(sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordLogin(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
