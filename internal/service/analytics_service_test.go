package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type analyticsRepoStub struct {
	averages  []models.SubjectReadiness
	history   []models.ExamAttempt
	days      []time.Time
	completed int
	seconds   int
	roster    []models.StudentRosterRow
}

func (s *analyticsRepoStub) SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectReadiness, error) {
	return s.averages, nil
}

func (s *analyticsRepoStub) ExamHistory(ctx context.Context, studentID string, limit int) ([]models.ExamAttempt, error) {
	return s.history, nil
}

func (s *analyticsRepoStub) SubmissionDays(ctx context.Context, studentID string) ([]time.Time, error) {
	return s.days, nil
}

func (s *analyticsRepoStub) CompletedContentCount(ctx context.Context, studentID string) (int, error) {
	return s.completed, nil
}

func (s *analyticsRepoStub) StudySeconds(ctx context.Context, studentID string) (int, error) {
	return s.seconds, nil
}

// Roster mirrors the repository: the level filter narrows the result
// set before pagination, and the total counts the filtered set.
func (s *analyticsRepoStub) Roster(ctx context.Context, filter models.RosterFilter) ([]models.StudentRosterRow, int, error) {
	var matched []models.StudentRosterRow
	for _, row := range s.roster {
		if filter.Level != nil && models.ReadinessForScore(row.AverageScore) != *filter.Level {
			continue
		}
		matched = append(matched, row)
	}
	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

type analyticsUserStub struct {
	users map[string]*models.User
}

func (s *analyticsUserStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func TestStreakDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time {
		return now.Truncate(24 * time.Hour).AddDate(0, 0, offset)
	}

	// Submitted today and the two days before.
	require.Equal(t, 3, streakDays([]time.Time{day(0), day(-1), day(-2)}, now))

	// Nothing today yet, but the streak survives through yesterday.
	require.Equal(t, 2, streakDays([]time.Time{day(-1), day(-2)}, now))

	// A gap ends the count.
	require.Equal(t, 1, streakDays([]time.Time{day(0), day(-2), day(-3)}, now))

	// Last submission two days ago: streak is over.
	require.Zero(t, streakDays([]time.Time{day(-2), day(-3)}, now))

	require.Zero(t, streakDays(nil, now))
}

func TestReadinessAveragesSubjectMeans(t *testing.T) {
	repo := &analyticsRepoStub{
		averages: []models.SubjectReadiness{
			{SubjectID: "s-1", SubjectName: "Biology", AverageScore: 90, Attempts: 4},
			{SubjectID: "s-2", SubjectName: "Physics", AverageScore: 60.333, Attempts: 12},
		},
	}
	svc := NewAnalyticsService(repo, &analyticsUserStub{}, nil)

	readiness, err := svc.Readiness(context.Background(), "student-1")
	require.NoError(t, err)

	// (90 + 60.33) / 2 regardless of attempt counts.
	require.InDelta(t, 75.17, readiness.AverageScore, 0.001)
	require.Equal(t, models.ReadinessModerate, readiness.Level)
	require.Equal(t, models.ReadinessHigh, readiness.Subjects[0].Level)
	require.Equal(t, models.ReadinessLow, readiness.Subjects[1].Level)
}

func TestReadinessNoAttempts(t *testing.T) {
	svc := NewAnalyticsService(&analyticsRepoStub{}, &analyticsUserStub{}, nil)

	readiness, err := svc.Readiness(context.Background(), "student-1")
	require.NoError(t, err)
	require.Zero(t, readiness.AverageScore)
	require.Equal(t, models.ReadinessLow, readiness.Level)
	require.Empty(t, readiness.Subjects)
}

func TestStudentRecordOnlyForStudents(t *testing.T) {
	users := &analyticsUserStub{users: map[string]*models.User{
		"faculty-1": {ID: "faculty-1", Role: models.RoleFaculty},
	}}
	svc := NewAnalyticsService(&analyticsRepoStub{}, users, nil)

	_, err := svc.StudentRecord(context.Background(), "faculty-1")
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.StudentRecord(context.Background(), "nobody")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestStudentRecordAssemblesSummary(t *testing.T) {
	users := &analyticsUserStub{users: map[string]*models.User{
		"student-1": {
			ID:         "student-1",
			FirstName:  "A",
			LastName:   "Student",
			Role:       models.RoleStudent,
			LoginCount: 7,
		},
	}}
	repo := &analyticsRepoStub{
		averages:  []models.SubjectReadiness{{SubjectID: "s-1", AverageScore: 82}},
		history:   []models.ExamAttempt{{AssessmentID: "a-1", Score: 82, Passed: true}},
		completed: 5,
		seconds:   5400, // 1.5 hours
	}
	svc := NewAnalyticsService(repo, users, nil)

	record, err := svc.StudentRecord(context.Background(), "student-1")
	require.NoError(t, err)
	require.Equal(t, 5, record.MaterialsRead)
	require.InDelta(t, 1.5, record.StudyHours, 0.001)
	require.Equal(t, 7, record.LoginCount)
	require.Len(t, record.ExamHistory, 1)
	require.Equal(t, models.ReadinessHigh, record.Readiness.Level)
}

func TestRosterLevelFilter(t *testing.T) {
	repo := &analyticsRepoStub{
		roster: []models.StudentRosterRow{
			{StudentID: "s-1", FullName: "High Achiever", AverageScore: 91},
			{StudentID: "s-2", FullName: "Mid Range", AverageScore: 70},
			{StudentID: "s-3", FullName: "Needs Help", AverageScore: 40},
		},
	}
	svc := NewAnalyticsService(repo, &analyticsUserStub{}, nil)

	low := models.ReadinessLow
	rows, total, err := svc.Roster(context.Background(), models.RosterFilter{Level: &low})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "s-3", rows[0].StudentID)

	rows, total, err = svc.Roster(context.Background(), models.RosterFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, models.ReadinessHigh, rows[0].Level)
}

func TestRosterLevelFilterPaginates(t *testing.T) {
	repo := &analyticsRepoStub{}
	for i := 0; i < 3; i++ {
		repo.roster = append(repo.roster,
			models.StudentRosterRow{StudentID: fmt.Sprintf("high-%d", i), AverageScore: 90},
			models.StudentRosterRow{StudentID: fmt.Sprintf("low-%d", i), AverageScore: 40},
		)
	}
	svc := NewAnalyticsService(repo, &analyticsUserStub{}, nil)

	// Filtered pages must be full and the total must count only
	// matching students, not everyone on the underlying page.
	low := models.ReadinessLow
	rows, total, err := svc.Roster(context.Background(), models.RosterFilter{Level: &low, Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, models.ReadinessLow, row.Level)
	}

	rows, total, err = svc.Roster(context.Background(), models.RosterFilter{Level: &low, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, rows, 1)
}

func TestExportRosterCSV(t *testing.T) {
	repo := &analyticsRepoStub{
		roster: []models.StudentRosterRow{
			{StudentID: "s-1", FullName: "A Student", InstitutionalID: "INST-1", AverageScore: 85.5, Attempts: 3},
		},
	}
	svc := NewAnalyticsService(repo, &analyticsUserStub{}, nil)

	payload, contentType, err := svc.ExportRoster(context.Background(), ExportCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)

	body := string(payload)
	require.True(t, strings.HasPrefix(body, "Student,Institutional ID,Average Score,Attempts,Readiness"))
	require.Contains(t, body, "A Student,INST-1,85.50,3,HIGH")
}

func TestExportRosterIncludesEveryPage(t *testing.T) {
	repo := &analyticsRepoStub{}
	for i := 0; i < 150; i++ {
		repo.roster = append(repo.roster, models.StudentRosterRow{
			StudentID:       fmt.Sprintf("s-%03d", i),
			FullName:        fmt.Sprintf("Student %03d", i),
			InstitutionalID: fmt.Sprintf("INST-%03d", i),
			AverageScore:    75,
			Attempts:        1,
		})
	}
	svc := NewAnalyticsService(repo, &analyticsUserStub{}, nil)

	payload, _, err := svc.ExportRoster(context.Background(), ExportCSV)
	require.NoError(t, err)

	// Header plus one line per student, past the 100-row page cap.
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 151)
	require.Contains(t, string(payload), "Student 149")
}

func TestExportRosterPDF(t *testing.T) {
	svc := NewAnalyticsService(&analyticsRepoStub{}, &analyticsUserStub{}, nil)

	payload, contentType, err := svc.ExportRoster(context.Background(), ExportPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", contentType)
	require.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportRosterUnknownFormat(t *testing.T) {
	svc := NewAnalyticsService(&analyticsRepoStub{}, &analyticsUserStub{}, nil)

	_, _, err := svc.ExportRoster(context.Background(), ExportFormat("xlsx"))
	requireCode(t, err, appErrors.ErrValidation.Code)
}
