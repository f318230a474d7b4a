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

type contentRepoStub struct {
	modules  map[string]*models.ContentModule
	progress map[string]*models.StudentProgress
}

func newContentRepoStub() *contentRepoStub {
	return &contentRepoStub{
		modules:  make(map[string]*models.ContentModule),
		progress: make(map[string]*models.StudentProgress),
	}
}

func (s *contentRepoStub) Create(ctx context.Context, module *models.ContentModule) error {
	if module.ID == "" {
		module.ID = "content-1"
	}
	s.modules[module.ID] = module
	return nil
}

func (s *contentRepoStub) GetByID(ctx context.Context, id string) (*models.ContentModule, error) {
	if m, ok := s.modules[id]; ok {
		copy := *m
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *contentRepoStub) List(ctx context.Context, filter models.ContentFilter) ([]models.ContentModule, int, error) {
	out := make([]models.ContentModule, 0, len(s.modules))
	for _, m := range s.modules {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.CreatedBy != "" && m.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (s *contentRepoStub) Update(ctx context.Context, module *models.ContentModule) error {
	s.modules[module.ID] = module
	return nil
}

func (s *contentRepoStub) UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error {
	m, ok := s.modules[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	allowed := false
	for _, from := range params.FromStatus {
		if m.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return sql.ErrNoRows
	}
	m.Status = params.ToStatus
	if params.BumpSubmitted {
		m.SubmissionCount++
	}
	if params.RevisionNotes != nil {
		m.RevisionNotes = *params.RevisionNotes
	}
	return nil
}

func (s *contentRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.modules[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.modules, id)
	return nil
}

func (s *contentRepoStub) UpsertProgress(ctx context.Context, progress *models.StudentProgress) error {
	s.progress[progress.StudentID+"|"+progress.ContentID] = progress
	return nil
}

func (s *contentRepoStub) ListProgress(ctx context.Context, studentID string) ([]models.StudentProgress, error) {
	out := []models.StudentProgress{}
	for _, p := range s.progress {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func moduleWithStatus(status models.ApprovalStatus) *models.ContentModule {
	return &models.ContentModule{
		ID:        "content-1",
		Title:     "Cell Biology",
		Body:      "Cells are the unit of life.",
		SubjectID: "subject-1",
		Status:    status,
		CreatedBy: "faculty-1",
	}
}

func TestContentCreateStatusByRole(t *testing.T) {
	repo := newContentRepoStub()
	svc := NewContentService(repo, nil, nil, nil)

	req := models.CreateContentRequest{
		Title:     "Cell Biology",
		Body:      "Cells are the unit of life.",
		SubjectID: "b77f31bc-9d0a-4f6e-8f89-1f2f3a4b5c6d",
	}

	module, err := svc.Create(context.Background(), req, facultyClaims)
	require.NoError(t, err)
	require.Equal(t, models.StatusDraft, module.Status)

	module, err = svc.Create(context.Background(), req, adminClaims)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, module.Status)
}

func TestContentStudentsOnlySeeApproved(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusDraft)
	svc := NewContentService(repo, nil, nil, nil)

	student := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	_, err := svc.Get(context.Background(), "content-1", student)
	requireCode(t, err, appErrors.ErrNotFound.Code)

	repo.modules["content-1"].Status = models.StatusApproved
	module, err := svc.Get(context.Background(), "content-1", student)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, module.Status)
}

func TestContentFacultyCannotPublishViaUpdate(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusDraft)
	svc := NewContentService(repo, nil, nil, nil)

	approved := models.StatusApproved
	author := &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty}
	module, err := svc.Update(context.Background(), "content-1", models.UpdateContentRequest{Status: &approved}, author)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, module.Status)
}

func TestContentUpdateForeignModuleForbidden(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusDraft)
	svc := NewContentService(repo, nil, nil, nil)

	title := "Renamed"
	other := &models.JWTClaims{UserID: "faculty-2", Role: models.RoleFaculty}
	_, err := svc.Update(context.Background(), "content-1", models.UpdateContentRequest{Title: &title}, other)
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestContentRemovalWorkflow(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusApproved)
	svc := NewContentService(repo, nil, nil, nil)

	author := &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty}

	// Published items cannot be deleted directly.
	err := svc.Delete(context.Background(), "content-1", author)
	requireCode(t, err, appErrors.ErrConflict.Code)

	module, err := svc.RequestRemoval(context.Background(), "content-1", author)
	require.NoError(t, err)
	require.Equal(t, models.StatusRemovalPending, module.Status)

	// Approving the removal erases the row.
	_, err = svc.Review(context.Background(), "content-1", models.ReviewRequest{Decision: models.DecisionApprove}, adminClaims)
	require.NoError(t, err)
	_, ok := repo.modules["content-1"]
	require.False(t, ok)
}

func TestContentRemovalRejectionRestoresPublished(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusRemovalPending)
	svc := NewContentService(repo, nil, nil, nil)

	module, err := svc.Review(context.Background(), "content-1", models.ReviewRequest{Decision: models.DecisionReject}, adminClaims)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, module.Status)
}

func TestContentReviewConcurrentConflict(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusPending)
	svc := NewContentService(repo, nil, nil, nil)

	_, err := svc.Review(context.Background(), "content-1", models.ReviewRequest{Decision: models.DecisionApprove}, adminClaims)
	require.NoError(t, err)

	// A second decision finds the item no longer pending.
	_, err = svc.Review(context.Background(), "content-1", models.ReviewRequest{Decision: models.DecisionReject}, adminClaims)
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestContentMarkCompleteAndProgress(t *testing.T) {
	repo := newContentRepoStub()
	repo.modules["content-1"] = moduleWithStatus(models.StatusApproved)
	svc := NewContentService(repo, nil, nil, nil)

	student := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	require.NoError(t, svc.MarkComplete(context.Background(), "content-1", student))

	// Idempotent: completing twice keeps one record.
	require.NoError(t, svc.MarkComplete(context.Background(), "content-1", student))

	progress, err := svc.Progress(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	require.True(t, progress["content-1"])

	err = svc.MarkComplete(context.Background(), "content-1", facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)
}
