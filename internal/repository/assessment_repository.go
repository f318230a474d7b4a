package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cognify-api/internal/models"
)

const assessmentColumns = `id, title, description, subject_id, topic_id, questions, duration_minutes,
       status, revision_notes, submission_count, created_by, reviewed_by, reviewed_at, created_at, updated_at`

// AssessmentRepository persists assessments and graded submissions.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.Status == "" {
		assessment.Status = models.StatusDraft
	}
	if assessment.RevisionNotes == nil {
		assessment.RevisionNotes = models.RevisionNotes{}
	}
	if assessment.Questions == nil {
		assessment.Questions = models.QuestionList{}
	}
	now := time.Now().UTC()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments
	(id, title, description, subject_id, topic_id, questions, duration_minutes, status, revision_notes, submission_count, created_by, created_at, updated_at)
	VALUES (:id, :title, :description, :subject_id, :topic_id, :questions, :duration_minutes, :status, :revision_notes, :submission_count, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// GetByID fetches an assessment by identifier.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE id = $1`, assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// GetApproved fetches an assessment only if it is published. Students
// never see drafts, so a non-approved id reads as not found.
func (r *AssessmentRepository) GetApproved(ctx context.Context, id string) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE id = $1 AND status = $2`, assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id, models.StatusApproved); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// List returns assessments matching the filter plus the total count.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", idx, idx))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assessments"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM assessments%s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		assessmentColumns, where, pageSize, (page-1)*pageSize)

	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, total, nil
}

// Update persists mutable assessment fields.
func (r *AssessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET
	title = :title, description = :description, topic_id = :topic_id, questions = :questions,
	duration_minutes = :duration_minutes, status = :status, revision_notes = :revision_notes, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// UpdateStatus performs a conditional workflow transition (see
// ContentRepository.UpdateStatus).
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	return execStatusUpdate(ctx, r.db, "assessments", params)
}

// Delete removes an assessment row.
func (r *AssessmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return nil
}

// CreateSubmission inserts a graded attempt.
func (r *AssessmentRepository) CreateSubmission(ctx context.Context, submission *models.AssessmentSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assessment_submissions
	(id, assessment_id, student_id, answers, score, correct, total, passed, time_taken_s, submitted_at)
	VALUES (:id, :assessment_id, :student_id, :answers, :score, :correct, :total, :passed, :time_taken_s, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// LatestSubmission returns the newest attempt for a student on an assessment.
func (r *AssessmentRepository) LatestSubmission(ctx context.Context, assessmentID, studentID string) (*models.AssessmentSubmission, error) {
	const query = `SELECT id, assessment_id, student_id, answers, score, correct, total, passed, time_taken_s, submitted_at
	FROM assessment_submissions WHERE assessment_id = $1 AND student_id = $2
	ORDER BY submitted_at DESC LIMIT 1`
	var submission models.AssessmentSubmission
	if err := r.db.GetContext(ctx, &submission, query, assessmentID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListSubmissionsByStudent returns a student's attempts, newest first.
func (r *AssessmentRepository) ListSubmissionsByStudent(ctx context.Context, studentID string, limit int) ([]models.AssessmentSubmission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, assessment_id, student_id, answers, score, correct, total, passed, time_taken_s, submitted_at
	FROM assessment_submissions WHERE student_id = $1 ORDER BY submitted_at DESC LIMIT %d`, limit)
	var submissions []models.AssessmentSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, studentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}
