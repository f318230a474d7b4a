package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cognify-api/internal/models"
)

// AnalyticsRepository runs the aggregate queries behind dashboards and
// student analytics.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// SubjectAverages returns per-subject average score and attempt count
// for one student.
func (r *AnalyticsRepository) SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectReadiness, error) {
	const query = `SELECT s.id AS subject_id, s.name AS subject_name,
	       COALESCE(AVG(sub.score), 0) AS average_score, COUNT(sub.id) AS attempts
	FROM assessment_submissions sub
	JOIN assessments a ON a.id = sub.assessment_id
	JOIN subjects s ON s.id = a.subject_id
	WHERE sub.student_id = $1
	GROUP BY s.id, s.name ORDER BY s.name`
	var rows []models.SubjectReadiness
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("subject averages: %w", err)
	}
	return rows, nil
}

// ExamHistory returns a student's graded attempts, newest first.
func (r *AnalyticsRepository) ExamHistory(ctx context.Context, studentID string, limit int) ([]models.ExamAttempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT sub.assessment_id, a.title AS assessment_title, s.name AS subject_name,
	       sub.score, sub.passed, sub.submitted_at
	FROM assessment_submissions sub
	JOIN assessments a ON a.id = sub.assessment_id
	JOIN subjects s ON s.id = a.subject_id
	WHERE sub.student_id = $1 ORDER BY sub.submitted_at DESC LIMIT %d`, limit)
	var rows []models.ExamAttempt
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("exam history: %w", err)
	}
	return rows, nil
}

// SubmissionDays returns the distinct UTC days on which the student
// submitted anything, newest first. Input for the streak calculation.
func (r *AnalyticsRepository) SubmissionDays(ctx context.Context, studentID string) ([]time.Time, error) {
	const query = `SELECT DISTINCT date_trunc('day', submitted_at) AS day
	FROM assessment_submissions WHERE student_id = $1 ORDER BY day DESC`
	var days []time.Time
	if err := r.db.SelectContext(ctx, &days, query, studentID); err != nil {
		return nil, fmt.Errorf("submission days: %w", err)
	}
	return days, nil
}

// CompletedContentCount counts modules the student marked complete.
func (r *AnalyticsRepository) CompletedContentCount(ctx context.Context, studentID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM student_progress WHERE student_id = $1 AND completed = TRUE`
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("completed content count: %w", err)
	}
	return count, nil
}

// StudySeconds sums the recorded time spent in assessments plus the
// estimated reading time of completed modules.
func (r *AnalyticsRepository) StudySeconds(ctx context.Context, studentID string) (int, error) {
	var seconds int
	const query = `SELECT
	COALESCE((SELECT SUM(time_taken_s) FROM assessment_submissions WHERE student_id = $1), 0) +
	COALESCE((SELECT SUM(c.estimated_minutes) * 60 FROM student_progress p
	          JOIN content_modules c ON c.id = p.content_id
	          WHERE p.student_id = $1 AND p.completed = TRUE), 0)`
	if err := r.db.GetContext(ctx, &seconds, query, studentID); err != nil {
		return 0, fmt.Errorf("study seconds: %w", err)
	}
	return seconds, nil
}

// rosterAvg is the rounded average the roster buckets on, matching
// what models.ReadinessForScore sees.
const rosterAvg = "ROUND(COALESCE(AVG(sub.score), 0)::numeric, 2)"

// rosterLevelCondition buckets the grouped average into the same bands
// as models.ReadinessForScore.
func rosterLevelCondition(level models.ReadinessLevel) string {
	switch level {
	case models.ReadinessHigh:
		return rosterAvg + " >= 80"
	case models.ReadinessModerate:
		return rosterAvg + " >= 65 AND " + rosterAvg + " < 80"
	default:
		return rosterAvg + " < 65"
	}
}

// Roster returns the analytics summary rows for students plus the total
// count. The readiness level filter runs in SQL, as HAVING on the
// grouped average, so pages and the total stay consistent.
func (r *AnalyticsRepository) Roster(ctx context.Context, filter models.RosterFilter) ([]models.StudentRosterRow, int, error) {
	conditions := []string{"u.role = 'STUDENT'"}
	args := make([]interface{}, 0, 2)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.institutional_id ILIKE $%d)", idx, idx, idx))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	having := ""
	if filter.Level != nil {
		having = "\n\tHAVING " + rosterLevelCondition(*filter.Level)
	}

	grouped := fmt.Sprintf(`SELECT u.id AS student_id,
	       TRIM(CONCAT(u.first_name, ' ', COALESCE(u.middle_name || ' ', ''), u.last_name)) AS full_name,
	       u.institutional_id,
	       %s AS average_score, COUNT(sub.id) AS attempts
	FROM users u
	LEFT JOIN assessment_submissions sub ON sub.student_id = u.id
	%s
	GROUP BY u.id, u.first_name, u.middle_name, u.last_name, u.institutional_id%s`, rosterAvg, where, having)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM ("+grouped+") roster", args...); err != nil {
		return nil, 0, fmt.Errorf("count roster: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`%s
	ORDER BY full_name ASC LIMIT %d OFFSET %d`, grouped, pageSize, (page-1)*pageSize)

	var rows []models.StudentRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list roster: %w", err)
	}
	return rows, total, nil
}

// EntityCounts feeds the admin dashboard headline numbers.
type EntityCounts struct {
	TotalUsers       int `db:"total_users"`
	TotalStudents    int `db:"total_students"`
	TotalFaculty     int `db:"total_faculty"`
	TotalSubjects    int `db:"total_subjects"`
	TotalContent     int `db:"total_content"`
	TotalAssessments int `db:"total_assessments"`
}

// Counts returns the headline entity counts.
func (r *AnalyticsRepository) Counts(ctx context.Context) (*EntityCounts, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM users) AS total_users,
	(SELECT COUNT(*) FROM users WHERE role = 'STUDENT') AS total_students,
	(SELECT COUNT(*) FROM users WHERE role = 'FACULTY') AS total_faculty,
	(SELECT COUNT(*) FROM subjects) AS total_subjects,
	(SELECT COUNT(*) FROM content_modules) AS total_content,
	(SELECT COUNT(*) FROM assessments) AS total_assessments`
	var counts EntityCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("entity counts: %w", err)
	}
	return &counts, nil
}

// PendingCounts returns items awaiting review per category.
func (r *AnalyticsRepository) PendingCounts(ctx context.Context) (*models.PendingCounts, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM content_modules WHERE status = 'PENDING') AS content,
	(SELECT COUNT(*) FROM assessments WHERE status = 'PENDING') AS assessments,
	(SELECT COUNT(*) FROM pending_subject_changes WHERE status = 'PENDING') AS subject_changes,
	(SELECT COUNT(*) FROM users WHERE status = 'PENDING') AS users`
	var counts models.PendingCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("pending counts: %w", err)
	}
	return &counts, nil
}

// AverageReadiness is the mean score across all graded submissions.
func (r *AnalyticsRepository) AverageReadiness(ctx context.Context) (float64, error) {
	var avg float64
	const query = `SELECT COALESCE(AVG(score), 0) FROM assessment_submissions`
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return 0, fmt.Errorf("average readiness: %w", err)
	}
	return avg, nil
}

// UserGrowth returns daily signup counts over the trailing window.
func (r *AnalyticsRepository) UserGrowth(ctx context.Context, days int) ([]models.DailyCount, error) {
	if days <= 0 {
		days = 7
	}
	query := fmt.Sprintf(`SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS date, COUNT(*) AS count
	FROM users WHERE created_at >= NOW() - INTERVAL '%d days'
	GROUP BY 1 ORDER BY 1`, days)
	var counts []models.DailyCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("user growth: %w", err)
	}
	return counts, nil
}

// RoleDistribution counts users per role.
func (r *AnalyticsRepository) RoleDistribution(ctx context.Context) (map[string]int, error) {
	const query = `SELECT role, COUNT(*) AS count FROM users GROUP BY role`
	rows := []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("role distribution: %w", err)
	}
	dist := make(map[string]int, len(rows))
	for _, row := range rows {
		dist[row.Role] = row.Count
	}
	return dist, nil
}

// FacultyCounts feeds the faculty dashboard.
type FacultyCounts struct {
	MyContent         int `db:"my_content"`
	MyAssessments     int `db:"my_assessments"`
	PendingReview     int `db:"pending_review"`
	RevisionRequested int `db:"revision_requested"`
	OpenRevisions     int `db:"open_revisions"`
}

// CountsForFaculty returns the own-scoped counters for one faculty user.
func (r *AnalyticsRepository) CountsForFaculty(ctx context.Context, userID string) (*FacultyCounts, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM content_modules WHERE created_by = $1) AS my_content,
	(SELECT COUNT(*) FROM assessments WHERE created_by = $1) AS my_assessments,
	(SELECT COUNT(*) FROM content_modules WHERE created_by = $1 AND status = 'PENDING') +
	(SELECT COUNT(*) FROM assessments WHERE created_by = $1 AND status = 'PENDING') AS pending_review,
	(SELECT COUNT(*) FROM content_modules WHERE created_by = $1 AND status = 'REVISION_REQUESTED') +
	(SELECT COUNT(*) FROM assessments WHERE created_by = $1 AND status = 'REVISION_REQUESTED') AS revision_requested,
	(SELECT COUNT(*) FROM revisions r WHERE r.status = 'PENDING' AND (
	  (r.target_type = 'CONTENT' AND EXISTS (SELECT 1 FROM content_modules c WHERE c.id = r.target_id AND c.created_by = $1))
	  OR (r.target_type = 'ASSESSMENT' AND EXISTS (SELECT 1 FROM assessments a WHERE a.id = r.target_id AND a.created_by = $1))
	)) AS open_revisions`
	var counts FacultyCounts
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("faculty counts: %w", err)
	}
	return &counts, nil
}

// SubjectProgressRows returns per-subject completion and average score
// for a student across approved subjects.
func (r *AnalyticsRepository) SubjectProgressRows(ctx context.Context, studentID string) ([]models.SubjectProgress, error) {
	const query = `SELECT s.id AS subject_id, s.name AS subject_name,
	(SELECT COUNT(*) FROM content_modules c WHERE c.subject_id = s.id AND c.status = 'APPROVED') AS total_content,
	(SELECT COUNT(*) FROM student_progress p
	  JOIN content_modules c ON c.id = p.content_id
	  WHERE p.student_id = $1 AND p.completed = TRUE AND c.subject_id = s.id) AS completed_count,
	COALESCE((SELECT AVG(sub.score) FROM assessment_submissions sub
	  JOIN assessments a ON a.id = sub.assessment_id
	  WHERE sub.student_id = $1 AND a.subject_id = s.id), 0) AS average_score
	FROM subjects s WHERE s.status = 'APPROVED' ORDER BY s.name`
	var rows []models.SubjectProgress
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("subject progress: %w", err)
	}
	return rows, nil
}

// PassCounts returns total and passed attempt counts for a student.
func (r *AnalyticsRepository) PassCounts(ctx context.Context, studentID string) (total, passed int, err error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE passed) AS passed
	FROM assessment_submissions WHERE student_id = $1`
	row := struct {
		Total  int `db:"total"`
		Passed int `db:"passed"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return 0, 0, fmt.Errorf("pass counts: %w", err)
	}
	return row.Total, row.Passed, nil
}
