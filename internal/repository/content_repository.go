package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cognify-api/internal/models"
)

const contentColumns = `id, title, description, body, subject_id, topic_id, status, revision_notes,
       submission_count, estimated_minutes, created_by, reviewed_by, reviewed_at, created_at, updated_at`

// ContentRepository persists learning content modules.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs the repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts a new content module.
func (r *ContentRepository) Create(ctx context.Context, module *models.ContentModule) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	if module.Status == "" {
		module.Status = models.StatusDraft
	}
	if module.RevisionNotes == nil {
		module.RevisionNotes = models.RevisionNotes{}
	}
	now := time.Now().UTC()
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}
	module.UpdatedAt = now
	const query = `INSERT INTO content_modules
	(id, title, description, body, subject_id, topic_id, status, revision_notes, submission_count, estimated_minutes, created_by, created_at, updated_at)
	VALUES (:id, :title, :description, :body, :subject_id, :topic_id, :status, :revision_notes, :submission_count, :estimated_minutes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("create content module: %w", err)
	}
	return nil
}

// GetByID fetches a content module by identifier.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*models.ContentModule, error) {
	query := fmt.Sprintf(`SELECT %s FROM content_modules WHERE id = $1`, contentColumns)
	var module models.ContentModule
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// List returns content modules matching the filter plus the total count.
func (r *ContentRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.ContentModule, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if filter.TopicID != "" {
		args = append(args, filter.TopicID)
		conditions = append(conditions, fmt.Sprintf("topic_id = $%d", len(args)))
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
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM content_modules"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count content modules: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM content_modules%s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		contentColumns, where, pageSize, (page-1)*pageSize)

	var modules []models.ContentModule
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list content modules: %w", err)
	}
	return modules, total, nil
}

// Update persists mutable module fields.
func (r *ContentRepository) Update(ctx context.Context, module *models.ContentModule) error {
	module.UpdatedAt = time.Now().UTC()
	const query = `UPDATE content_modules SET
	title = :title, description = :description, body = :body, topic_id = :topic_id,
	status = :status, revision_notes = :revision_notes, estimated_minutes = :estimated_minutes, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("update content module: %w", err)
	}
	return nil
}

// UpdateStatusParams groups the columns written by a workflow transition.
type UpdateStatusParams struct {
	ID            string
	FromStatus    []models.ApprovalStatus
	ToStatus      models.ApprovalStatus
	ReviewedBy    *string
	ReviewedAt    *time.Time
	RevisionNotes *models.RevisionNotes
	BumpSubmitted bool
}

// UpdateStatus performs a conditional workflow transition. The guard on
// the current status makes concurrent reviews race-safe: the loser sees
// sql.ErrNoRows.
func (r *ContentRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	return execStatusUpdate(ctx, r.db, "content_modules", params)
}

// Delete removes a content module row.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM content_modules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete content module: %w", err)
	}
	return nil
}

// UpsertProgress marks a content module complete for a student.
func (r *ContentRepository) UpsertProgress(ctx context.Context, progress *models.StudentProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = now
	}
	progress.UpdatedAt = now
	const query = `INSERT INTO student_progress
	(id, student_id, content_id, completed, completed_at, created_at, updated_at)
	VALUES (:id, :student_id, :content_id, :completed, :completed_at, :created_at, :updated_at)
	ON CONFLICT (student_id, content_id) DO UPDATE SET
	completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert student progress: %w", err)
	}
	return nil
}

// ListProgress returns a student's progress rows for the given content ids.
func (r *ContentRepository) ListProgress(ctx context.Context, studentID string) ([]models.StudentProgress, error) {
	const query = `SELECT id, student_id, content_id, completed, completed_at, created_at, updated_at
	FROM student_progress WHERE student_id = $1`
	var rows []models.StudentProgress
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student progress: %w", err)
	}
	return rows, nil
}

// execStatusUpdate is the shared conditional transition for content and
// assessment tables.
func execStatusUpdate(ctx context.Context, db *sqlx.DB, table string, params UpdateStatusParams) error {
	setParts := []string{"status = :status", "updated_at = :updated_at"}
	named := map[string]interface{}{
		"id":         params.ID,
		"status":     params.ToStatus,
		"updated_at": time.Now().UTC(),
	}
	if params.ReviewedBy != nil {
		setParts = append(setParts, "reviewed_by = :reviewed_by", "reviewed_at = :reviewed_at")
		named["reviewed_by"] = params.ReviewedBy
		named["reviewed_at"] = params.ReviewedAt
	}
	if params.RevisionNotes != nil {
		setParts = append(setParts, "revision_notes = :revision_notes")
		named["revision_notes"] = *params.RevisionNotes
	}
	if params.BumpSubmitted {
		setParts = append(setParts, "submission_count = submission_count + 1")
	}

	guards := make([]string, len(params.FromStatus))
	for i, status := range params.FromStatus {
		guards[i] = fmt.Sprintf("'%s'", status)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id AND status IN (%s)",
		table, strings.Join(setParts, ", "), strings.Join(guards, ","))

	result, err := db.NamedExecContext(ctx, query, named)
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s status rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
