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

type subjectRepoStub struct {
	subjects map[string]*models.Subject
	topics   map[string][]models.Topic
	changes  map[string]*models.PendingSubjectChange
	applied  *models.SubjectChangeData
}

func newSubjectRepoStub() *subjectRepoStub {
	return &subjectRepoStub{
		subjects: make(map[string]*models.Subject),
		topics:   make(map[string][]models.Topic),
		changes:  make(map[string]*models.PendingSubjectChange),
	}
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "subject-1"
	}
	s.subjects[subject.ID] = subject
	return nil
}

func (s *subjectRepoStub) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	if sub, ok := s.subjects[id]; ok {
		copy := *sub
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectRepoStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	out := make([]models.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		if filter.Status != nil && sub.Status != *filter.Status {
			continue
		}
		out = append(out, *sub)
	}
	return out, len(out), nil
}

func (s *subjectRepoStub) Update(ctx context.Context, subject *models.Subject) error {
	s.subjects[subject.ID] = subject
	return nil
}

func (s *subjectRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.subjects, id)
	return nil
}

func (s *subjectRepoStub) ListTopics(ctx context.Context, subjectID string) ([]models.Topic, error) {
	return s.topics[subjectID], nil
}

func (s *subjectRepoStub) CreateChange(ctx context.Context, change *models.PendingSubjectChange) error {
	if change.ID == "" {
		change.ID = "change-1"
	}
	s.changes[change.ID] = change
	return nil
}

func (s *subjectRepoStub) GetChangeByID(ctx context.Context, id string) (*models.PendingSubjectChange, error) {
	if c, ok := s.changes[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectRepoStub) ListChanges(ctx context.Context, status *models.ApprovalStatus, subjectID, submittedBy string) ([]models.PendingSubjectChange, error) {
	out := []models.PendingSubjectChange{}
	for _, c := range s.changes {
		if status != nil && c.Status != *status {
			continue
		}
		if submittedBy != "" && c.SubmittedBy != submittedBy {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *subjectRepoStub) ResolveChange(ctx context.Context, params repository.ResolveChangeParams) error {
	c, ok := s.changes[params.ID]
	if !ok || c.Status != models.StatusPending {
		return sql.ErrNoRows
	}
	c.Status = params.Status
	c.ReviewedBy = &params.ReviewedBy
	c.ReviewNote = params.ReviewNote
	c.ReviewedAt = &params.ReviewedAt
	return nil
}

func (s *subjectRepoStub) ApplyChange(ctx context.Context, subjectID string, data models.SubjectChangeData) error {
	s.applied = &data
	sub := s.subjects[subjectID]
	sub.Name = data.Name
	sub.Code = data.Code
	return nil
}

func approvedSubject() *models.Subject {
	return &models.Subject{
		ID:     "subject-1",
		Name:   "Biology",
		Code:   "BIO-101",
		Status: models.StatusApproved,
	}
}

func TestSubjectDirectEditsAreAdminOnly(t *testing.T) {
	repo := newSubjectRepoStub()
	repo.subjects["subject-1"] = approvedSubject()
	svc := NewSubjectService(repo, nil, nil, nil)

	req := models.CreateSubjectRequest{Name: "Chemistry", Code: "CHE-101"}

	_, err := svc.Create(context.Background(), req, facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)

	_, err = svc.Update(context.Background(), "subject-1", req, facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)

	err = svc.Delete(context.Background(), "subject-1", facultyClaims)
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestProposeChangeLeavesSubjectUntouched(t *testing.T) {
	repo := newSubjectRepoStub()
	repo.subjects["subject-1"] = approvedSubject()
	svc := NewSubjectService(repo, nil, nil, nil)

	change, err := svc.ProposeChange(context.Background(), "subject-1", models.ProposeSubjectChangeRequest{
		Name: "Modern Biology",
		Code: "BIO-102",
	}, facultyClaims)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, change.Status)
	require.Equal(t, "faculty-1", change.SubmittedBy)

	// Live subject is unchanged until approval.
	subject, err := svc.Get(context.Background(), "subject-1")
	require.NoError(t, err)
	require.Equal(t, "Biology", subject.Name)
}

func TestResolveChangeApproveAppliesSnapshot(t *testing.T) {
	repo := newSubjectRepoStub()
	repo.subjects["subject-1"] = approvedSubject()
	repo.changes["change-1"] = &models.PendingSubjectChange{
		ID:        "change-1",
		SubjectID: "subject-1",
		ChangeData: models.SubjectChangeData{
			Name: "Modern Biology",
			Code: "BIO-102",
		},
		Status:      models.StatusPending,
		SubmittedBy: "faculty-1",
	}
	svc := NewSubjectService(repo, nil, nil, nil)

	change, err := svc.ResolveChange(context.Background(), "change-1", models.ResolveSubjectChangeRequest{
		Decision: models.DecisionApprove,
		Note:     "looks right",
	}, adminClaims)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, change.Status)
	require.NotNil(t, repo.applied)
	require.Equal(t, "Modern Biology", repo.subjects["subject-1"].Name)

	// Second resolution finds the change no longer pending.
	_, err = svc.ResolveChange(context.Background(), "change-1", models.ResolveSubjectChangeRequest{
		Decision: models.DecisionReject,
	}, adminClaims)
	requireCode(t, err, appErrors.ErrConflict.Code)
}

func TestResolveChangeRejectMutatesNothing(t *testing.T) {
	repo := newSubjectRepoStub()
	repo.subjects["subject-1"] = approvedSubject()
	repo.changes["change-1"] = &models.PendingSubjectChange{
		ID:          "change-1",
		SubjectID:   "subject-1",
		ChangeData:  models.SubjectChangeData{Name: "Modern Biology", Code: "BIO-102"},
		Status:      models.StatusPending,
		SubmittedBy: "faculty-1",
	}
	svc := NewSubjectService(repo, nil, nil, nil)

	change, err := svc.ResolveChange(context.Background(), "change-1", models.ResolveSubjectChangeRequest{
		Decision: models.DecisionReject,
	}, adminClaims)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, change.Status)
	require.Nil(t, repo.applied)
	require.Equal(t, "Biology", repo.subjects["subject-1"].Name)
}

func TestListChangesFacultyScopedToOwn(t *testing.T) {
	repo := newSubjectRepoStub()
	repo.changes["change-1"] = &models.PendingSubjectChange{ID: "change-1", SubmittedBy: "faculty-1", Status: models.StatusPending}
	repo.changes["change-2"] = &models.PendingSubjectChange{ID: "change-2", SubmittedBy: "faculty-2", Status: models.StatusPending}
	svc := NewSubjectService(repo, nil, nil, nil)

	changes, err := svc.ListChanges(context.Background(), nil, "", facultyClaims)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "change-1", changes[0].ID)

	changes, err = svc.ListChanges(context.Background(), nil, "", adminClaims)
	require.NoError(t, err)
	require.Len(t, changes, 2)
}

func TestBuildTopicTree(t *testing.T) {
	parent := "t-1"
	topics := []models.Topic{
		{ID: "t-1", Name: "Cells", SortOrder: 1},
		{ID: "t-2", Name: "Organelles", SortOrder: 1, ParentID: &parent},
		{ID: "t-3", Name: "Genetics", SortOrder: 2},
	}

	roots := buildTopicTree(topics)
	require.Len(t, roots, 2)
	require.Equal(t, "Cells", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "Organelles", roots[0].Children[0].Name)
	require.Empty(t, roots[1].Children)
}

func TestBuildTopicTreeOrphanBecomesRoot(t *testing.T) {
	missing := "gone"
	roots := buildTopicTree([]models.Topic{
		{ID: "t-1", Name: "Orphan", ParentID: &missing},
	})
	require.Len(t, roots, 1)
	require.Equal(t, "Orphan", roots[0].Name)
}
