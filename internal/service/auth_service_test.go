package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type authUserStub struct {
	byEmail   map[string]*models.User
	byID      map[string]*models.User
	created   *models.User
	flippedID string
	logins    []string
}

func newAuthUserStub() *authUserStub {
	return &authUserStub{byEmail: make(map[string]*models.User), byID: make(map[string]*models.User)}
}

func (s *authUserStub) add(user *models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *authUserStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserStub) CreateFromWhitelist(ctx context.Context, user *models.User, whitelistID string) error {
	s.created = user
	s.flippedID = whitelistID
	s.add(user)
	return nil
}

func (s *authUserStub) RecordLogin(ctx context.Context, id string) error {
	s.logins = append(s.logins, id)
	return nil
}

type whitelistStub struct {
	entries map[string]*models.WhitelistEntry
}

func (s *whitelistStub) FindMatch(ctx context.Context, email, institutionalID string) (*models.WhitelistEntry, error) {
	if e, ok := s.entries[email+"|"+institutionalID]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type maintenanceStub struct {
	on bool
}

func (s maintenanceStub) MaintenanceOn(ctx context.Context) bool { return s.on }

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:        "test-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "cognify-api",
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, role models.UserRole) *models.User {
	return &models.User{
		ID:              "user-" + string(role),
		Email:           string(role) + "@example.edu",
		PasswordHash:    hashPassword(t, "secret123"),
		FirstName:       "Test",
		LastName:        "User",
		InstitutionalID: "INST-1",
		Role:            role,
		Status:          models.UserStatusActive,
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	users := newAuthUserStub()
	faculty := activeUser(t, models.RoleFaculty)
	users.add(faculty)
	svc := NewAuthService(users, &whitelistStub{}, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    faculty.Email,
		Password: "secret123",
	}, models.SurfaceWeb)
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, faculty.ID, result.User.ID)
	require.Equal(t, []string{faculty.ID}, users.logins)

	claims, err := svc.ParseToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "access", claims.TokenType)
	require.Equal(t, models.RoleFaculty, claims.Role)
}

func TestLoginWrongSurface(t *testing.T) {
	users := newAuthUserStub()
	student := activeUser(t, models.RoleStudent)
	users.add(student)
	svc := NewAuthService(users, &whitelistStub{}, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	// A student on the web portal is pointed at the mobile app.
	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    student.Email,
		Password: "secret123",
	}, models.SurfaceWeb)
	requireCode(t, err, appErrors.ErrWrongSurface.Code)

	faculty := activeUser(t, models.RoleFaculty)
	users.add(faculty)
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    faculty.Email,
		Password: "secret123",
	}, models.SurfaceMobile)
	requireCode(t, err, appErrors.ErrWrongSurface.Code)
}

func TestLoginBlocksInactiveAccounts(t *testing.T) {
	users := newAuthUserStub()
	pending := activeUser(t, models.RoleFaculty)
	pending.Status = models.UserStatusPending
	users.add(pending)
	svc := NewAuthService(users, &whitelistStub{}, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    pending.Email,
		Password: "secret123",
	}, models.SurfaceWeb)
	requireCode(t, err, appErrors.ErrAccountPending.Code)
}

func TestLoginMaintenanceBlocksNonAdmins(t *testing.T) {
	users := newAuthUserStub()
	faculty := activeUser(t, models.RoleFaculty)
	admin := activeUser(t, models.RoleAdmin)
	users.add(faculty)
	users.add(admin)
	svc := NewAuthService(users, &whitelistStub{}, maintenanceStub{on: true}, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    faculty.Email,
		Password: "secret123",
	}, models.SurfaceWeb)
	requireCode(t, err, appErrors.ErrMaintenance.Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    admin.Email,
		Password: "secret123",
	}, models.SurfaceWeb)
	require.NoError(t, err)
}

func TestRegisterRequiresWhitelist(t *testing.T) {
	svc := NewAuthService(newAuthUserStub(), &whitelistStub{entries: map[string]*models.WhitelistEntry{}}, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           "nobody@example.edu",
		Password:        "secret123",
		FirstName:       "No",
		LastName:        "Body",
		InstitutionalID: "INST-404",
	}, models.SurfaceMobile)
	requireCode(t, err, appErrors.ErrNotWhitelisted.Code)
}

func TestRegisterRejectsUsedWhitelistEntry(t *testing.T) {
	entry := &models.WhitelistEntry{
		ID:              "wl-1",
		Email:           "student@example.edu",
		InstitutionalID: "INST-1",
		Role:            models.RoleStudent,
		Status:          models.WhitelistStatusRegistered,
	}
	whitelist := &whitelistStub{entries: map[string]*models.WhitelistEntry{
		entry.Email + "|" + entry.InstitutionalID: entry,
	}}
	svc := NewAuthService(newAuthUserStub(), whitelist, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           entry.Email,
		Password:        "secret123",
		FirstName:       "A",
		LastName:        "Student",
		InstitutionalID: entry.InstitutionalID,
	}, models.SurfaceMobile)
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestRegisterRoleMustMatchSurface(t *testing.T) {
	entry := &models.WhitelistEntry{
		ID:              "wl-1",
		Email:           "teach@example.edu",
		InstitutionalID: "INST-2",
		Role:            models.RoleFaculty,
		Status:          models.WhitelistStatusPending,
	}
	whitelist := &whitelistStub{entries: map[string]*models.WhitelistEntry{
		entry.Email + "|" + entry.InstitutionalID: entry,
	}}
	svc := NewAuthService(newAuthUserStub(), whitelist, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	// Faculty entry through the mobile (student) surface.
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           entry.Email,
		Password:        "secret123",
		FirstName:       "A",
		LastName:        "Lecturer",
		InstitutionalID: entry.InstitutionalID,
	}, models.SurfaceMobile)
	requireCode(t, err, appErrors.ErrWrongSurface.Code)
}

func TestRegisterCreatesPendingAccount(t *testing.T) {
	entry := &models.WhitelistEntry{
		ID:              "wl-1",
		Email:           "student@example.edu",
		InstitutionalID: "INST-1",
		Role:            models.RoleStudent,
		Status:          models.WhitelistStatusPending,
	}
	whitelist := &whitelistStub{entries: map[string]*models.WhitelistEntry{
		entry.Email + "|" + entry.InstitutionalID: entry,
	}}
	users := newAuthUserStub()
	svc := NewAuthService(users, whitelist, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:           entry.Email,
		Password:        "secret123",
		FirstName:       "A",
		LastName:        "Student",
		InstitutionalID: entry.InstitutionalID,
	}, models.SurfaceMobile)
	require.NoError(t, err)
	require.Equal(t, models.UserStatusPending, user.Status)
	require.Equal(t, models.RoleStudent, user.Role)
	require.Equal(t, "wl-1", users.flippedID)

	// The new account cannot log in until verified.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    entry.Email,
		Password: "secret123",
	}, models.SurfaceMobile)
	requireCode(t, err, appErrors.ErrAccountPending.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	users := newAuthUserStub()
	faculty := activeUser(t, models.RoleFaculty)
	users.add(faculty)
	svc := NewAuthService(users, &whitelistStub{}, maintenanceStub{}, nil, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    faculty.Email,
		Password: "secret123",
	}, models.SurfaceWeb)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.AccessToken})
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	result, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
}
