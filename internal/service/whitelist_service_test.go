package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type whitelistRepoStub struct {
	entries map[string]*models.WhitelistEntry
	nextID  int
}

func newWhitelistRepoStub() *whitelistRepoStub {
	return &whitelistRepoStub{entries: make(map[string]*models.WhitelistEntry)}
}

func (s *whitelistRepoStub) Create(ctx context.Context, entry *models.WhitelistEntry) error {
	s.nextID++
	entry.ID = fmt.Sprintf("wl-%d", s.nextID)
	s.entries[entry.ID] = entry
	return nil
}

func (s *whitelistRepoStub) GetByID(ctx context.Context, id string) (*models.WhitelistEntry, error) {
	if e, ok := s.entries[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *whitelistRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, e := range s.entries {
		if e.Email == strings.ToLower(email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *whitelistRepoStub) List(ctx context.Context, filter models.WhitelistFilter) ([]models.WhitelistEntry, int, error) {
	out := make([]models.WhitelistEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Role != nil && e.Role != *filter.Role {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *whitelistRepoStub) Update(ctx context.Context, entry *models.WhitelistEntry) error {
	s.entries[entry.ID] = entry
	return nil
}

func (s *whitelistRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.entries, id)
	return nil
}

var adminClaims = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
var facultyClaims = &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty}

func TestWhitelistCreateLowercasesEmail(t *testing.T) {
	repo := newWhitelistRepoStub()
	svc := NewWhitelistService(repo, nil, nil, nil)

	entry, err := svc.Create(context.Background(), models.CreateWhitelistRequest{
		Email:           "Student@Example.EDU",
		FirstName:       "A",
		LastName:        "Student",
		InstitutionalID: "INST-1",
		Role:            models.RoleStudent,
	}, adminClaims)
	require.NoError(t, err)
	require.Equal(t, "student@example.edu", entry.Email)
	require.Equal(t, models.WhitelistStatusPending, entry.Status)

	_, err = svc.Create(context.Background(), models.CreateWhitelistRequest{
		Email:           "student@example.edu",
		FirstName:       "A",
		LastName:        "Student",
		InstitutionalID: "INST-1",
		Role:            models.RoleStudent,
	}, adminClaims)
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestWhitelistFacultyOnlyWhitelistsStudents(t *testing.T) {
	repo := newWhitelistRepoStub()
	svc := NewWhitelistService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateWhitelistRequest{
		Email:           "peer@example.edu",
		FirstName:       "A",
		LastName:        "Peer",
		InstitutionalID: "INST-2",
		Role:            models.RoleFaculty,
	}, facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestWhitelistRegisteredEntriesAreImmutable(t *testing.T) {
	repo := newWhitelistRepoStub()
	used := &models.WhitelistEntry{
		ID:     "wl-used",
		Email:  "used@example.edu",
		Role:   models.RoleStudent,
		Status: models.WhitelistStatusRegistered,
	}
	repo.entries[used.ID] = used
	svc := NewWhitelistService(repo, nil, nil, nil)

	name := "New"
	_, err := svc.Update(context.Background(), used.ID, models.UpdateWhitelistRequest{FirstName: &name}, adminClaims)
	requireCode(t, err, appErrors.ErrConflict.Code)

	err = svc.Delete(context.Background(), used.ID, adminClaims)
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestImportCSVReportsPerRowFailures(t *testing.T) {
	repo := newWhitelistRepoStub()
	svc := NewWhitelistService(repo, nil, nil, nil)

	csvFile := strings.Join([]string{
		"email,first_name,last_name,institutional_id,role,department",
		"ok@example.edu,First,Last,INST-1,STUDENT,Science",
		",Missing,Email,INST-2,STUDENT,",
		"bad-role@example.edu,Bad,Role,INST-3,WIZARD,",
		"defaulted@example.edu,No,Role,INST-4,,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvFile), adminClaims)
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 2, result.Skipped)
	require.Len(t, result.Failures, 2)
	require.Equal(t, 2, result.Failures[0].Row)
	require.Contains(t, result.Failures[1].Reason, "unknown role")
}

func TestImportCSVDuplicateEmailSkipped(t *testing.T) {
	repo := newWhitelistRepoStub()
	svc := NewWhitelistService(repo, nil, nil, nil)

	csvFile := strings.Join([]string{
		"email,first_name,last_name,institutional_id,role",
		"dup@example.edu,First,Last,INST-1,STUDENT",
		"dup@example.edu,Second,Time,INST-2,STUDENT",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvFile), adminClaims)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, "email is already whitelisted", result.Failures[0].Reason)
}

func TestImportJSONFacultyRoleRestriction(t *testing.T) {
	repo := newWhitelistRepoStub()
	svc := NewWhitelistService(repo, nil, nil, nil)

	payload := `[
		{"email": "s1@example.edu", "first_name": "S", "last_name": "One", "institutional_id": "INST-1", "role": "STUDENT"},
		{"email": "f1@example.edu", "first_name": "F", "last_name": "One", "institutional_id": "INST-2", "role": "FACULTY"}
	]`

	result, err := svc.ImportJSON(context.Background(), strings.NewReader(payload), facultyClaims)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, "faculty can only whitelist students", result.Failures[0].Reason)
}

func TestImportJSONRejectsMalformedPayload(t *testing.T) {
	svc := NewWhitelistService(newWhitelistRepoStub(), nil, nil, nil)

	_, err := svc.ImportJSON(context.Background(), strings.NewReader(`{"not": "an array"}`), adminClaims)
	requireCode(t, err, appErrors.ErrValidation.Code)
}
