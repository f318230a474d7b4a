package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/pkg/export"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type analyticsStore interface {
	SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectReadiness, error)
	ExamHistory(ctx context.Context, studentID string, limit int) ([]models.ExamAttempt, error)
	SubmissionDays(ctx context.Context, studentID string) ([]time.Time, error)
	CompletedContentCount(ctx context.Context, studentID string) (int, error)
	StudySeconds(ctx context.Context, studentID string) (int, error)
	Roster(ctx context.Context, filter models.RosterFilter) ([]models.StudentRosterRow, int, error)
}

type analyticsUserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type readinessSource interface {
	SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectReadiness, error)
}

// ExportFormat selects the analytics export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// AnalyticsService computes readiness, study streaks and full student
// records, and renders the roster export.
type AnalyticsService struct {
	repo   analyticsStore
	users  analyticsUserStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(repo analyticsStore, users analyticsUserStore, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		repo:   repo,
		users:  users,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// computeReadiness aggregates per-subject averages into an overall
// readiness summary. The overall score is the mean of subject averages,
// so a weak subject is not drowned out by a heavily-attempted strong one.
func computeReadiness(ctx context.Context, src readinessSource, studentID string) (*models.StudentReadiness, error) {
	subjects, err := src.SubjectAverages(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load subject averages")
	}
	var sum float64
	for i := range subjects {
		subjects[i].AverageScore = round2(subjects[i].AverageScore)
		subjects[i].Level = models.ReadinessForScore(subjects[i].AverageScore)
		sum += subjects[i].AverageScore
	}
	var overall float64
	if len(subjects) > 0 {
		overall = round2(sum / float64(len(subjects)))
	}
	return &models.StudentReadiness{
		StudentID:    studentID,
		AverageScore: overall,
		Level:        models.ReadinessForScore(overall),
		Subjects:     subjects,
	}, nil
}

// streakDays counts consecutive days with submissions ending today or
// yesterday. Days must be distinct day-truncated timestamps, newest
// first.
func streakDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	today := now.Truncate(24 * time.Hour)
	expected := today
	if !days[0].Equal(today) {
		// A streak survives until a full day is missed.
		expected = today.AddDate(0, 0, -1)
		if !days[0].Equal(expected) {
			return 0
		}
	}
	streak := 0
	for _, day := range days {
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

// Readiness returns the readiness summary for one student.
func (s *AnalyticsService) Readiness(ctx context.Context, studentID string) (*models.StudentReadiness, error) {
	return computeReadiness(ctx, s.repo, studentID)
}

// StudentRecord assembles the full analytics view of one student.
func (s *AnalyticsService) StudentRecord(ctx context.Context, studentID string) (*models.StudentRecord, error) {
	user, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "analytics records exist only for students")
	}

	readiness, err := computeReadiness(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ExamHistory(ctx, studentID, 50)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load exam history")
	}
	materialsRead, err := s.repo.CompletedContentCount(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load reading progress")
	}
	studySeconds, err := s.repo.StudySeconds(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load study time")
	}
	days, err := s.repo.SubmissionDays(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submission days")
	}

	return &models.StudentRecord{
		Student:       userInfo(user),
		Readiness:     *readiness,
		ExamHistory:   history,
		MaterialsRead: materialsRead,
		StudyHours:    round2(float64(studySeconds) / 3600),
		StreakDays:    streakDays(days, time.Now().UTC()),
		LoginCount:    user.LoginCount,
		LastActive:    user.LastLogin,
	}, nil
}

// Roster returns the student analytics roster. The repository filters
// by readiness level, so here scores only get rounded and stamped with
// their level.
func (s *AnalyticsService) Roster(ctx context.Context, filter models.RosterFilter) ([]models.StudentRosterRow, int, error) {
	rows, total, err := s.repo.Roster(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to load roster")
	}
	for i := range rows {
		rows[i].AverageScore = round2(rows[i].AverageScore)
		rows[i].Level = models.ReadinessForScore(rows[i].AverageScore)
	}
	return rows, total, nil
}

// ExportRoster renders the full roster as CSV or PDF bytes. The roster
// is paged internally until exhausted so exports are never truncated.
func (s *AnalyticsService) ExportRoster(ctx context.Context, format ExportFormat) ([]byte, string, error) {
	const pageSize = 100
	var rows []models.StudentRosterRow
	for page := 1; ; page++ {
		batch, total, err := s.Roster(ctx, models.RosterFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, batch...)
		if len(batch) < pageSize || len(rows) >= total {
			break
		}
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Institutional ID", "Average Score", "Attempts", "Readiness"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":          row.FullName,
			"Institutional ID": row.InstitutionalID,
			"Average Score":    fmt.Sprintf("%.2f", row.AverageScore),
			"Attempts":         fmt.Sprintf("%d", row.Attempts),
			"Readiness":        string(row.Level),
		})
	}

	switch format {
	case ExportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Internal(err, "failed to render CSV export")
		}
		return payload, "text/csv", nil
	case ExportPDF:
		payload, err := s.pdf.Render(dataset, "Student Readiness Report")
		if err != nil {
			return nil, "", appErrors.Internal(err, "failed to render PDF export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
