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

const subjectColumns = `id, name, code, description, status, created_by, created_at, updated_at`

const changeColumns = `id, subject_id, change_data, status, submitted_by, reviewed_by, review_note, reviewed_at, created_at`

// SubjectRepository persists subjects, their topic trees and pending
// change snapshots.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.Status == "" {
		subject.Status = models.StatusApproved
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects
	(id, name, code, description, status, created_by, created_at, updated_at)
	VALUES (:id, :name, :code, :description, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// GetByID fetches a subject by identifier.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE id = $1`, subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// List returns subjects matching the filter plus the total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", idx, idx))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM subjects"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM subjects%s ORDER BY name ASC LIMIT %d OFFSET %d`,
		subjectColumns, where, pageSize, (page-1)*pageSize)

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, total, nil
}

// Update persists mutable subject fields.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET
	name = :name, code = :code, description = :description, status = :status, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject row.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// ListTopics returns all topics of a subject ordered for tree assembly.
func (r *SubjectRepository) ListTopics(ctx context.Context, subjectID string) ([]models.Topic, error) {
	const query = `SELECT id, subject_id, parent_id, name, sort_order, status, created_at, updated_at
	FROM topics WHERE subject_id = $1 ORDER BY sort_order ASC, created_at ASC`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, subjectID); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// CreateChange stores a pending subject change snapshot.
func (r *SubjectRepository) CreateChange(ctx context.Context, change *models.PendingSubjectChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.Status == "" {
		change.Status = models.StatusPending
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO pending_subject_changes
	(id, subject_id, change_data, status, submitted_by, created_at)
	VALUES (:id, :subject_id, :change_data, :status, :submitted_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, change); err != nil {
		return fmt.Errorf("create subject change: %w", err)
	}
	return nil
}

// GetChangeByID fetches a pending change by identifier.
func (r *SubjectRepository) GetChangeByID(ctx context.Context, id string) (*models.PendingSubjectChange, error) {
	query := fmt.Sprintf(`SELECT %s FROM pending_subject_changes WHERE id = $1`, changeColumns)
	var change models.PendingSubjectChange
	if err := r.db.GetContext(ctx, &change, query, id); err != nil {
		return nil, err
	}
	return &change, nil
}

// ListChanges returns changes filtered by status, subject or submitter.
func (r *SubjectRepository) ListChanges(ctx context.Context, status *models.ApprovalStatus, subjectID, submittedBy string) ([]models.PendingSubjectChange, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if status != nil {
		args = append(args, *status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if subjectID != "" {
		args = append(args, subjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if submittedBy != "" {
		args = append(args, submittedBy)
		conditions = append(conditions, fmt.Sprintf("submitted_by = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`SELECT %s FROM pending_subject_changes%s ORDER BY created_at DESC`, changeColumns, where)

	var changes []models.PendingSubjectChange
	if err := r.db.SelectContext(ctx, &changes, query, args...); err != nil {
		return nil, fmt.Errorf("list subject changes: %w", err)
	}
	return changes, nil
}

// ResolveChangeParams groups columns stamped during change review.
type ResolveChangeParams struct {
	ID         string
	Status     models.ApprovalStatus
	ReviewedBy string
	ReviewNote *string
	ReviewedAt time.Time
}

// ResolveChange stamps a review outcome. Conditional on PENDING; a
// concurrent resolution sees sql.ErrNoRows.
func (r *SubjectRepository) ResolveChange(ctx context.Context, params ResolveChangeParams) error {
	query := fmt.Sprintf(`UPDATE pending_subject_changes SET
	status = :status, reviewed_by = :reviewed_by, review_note = :review_note, reviewed_at = :reviewed_at
	WHERE id = :id AND status = '%s'`, models.StatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"review_note": params.ReviewNote,
		"reviewed_at": params.ReviewedAt,
	})
	if err != nil {
		return fmt.Errorf("resolve subject change: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check change resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApplyChange writes an approved snapshot onto the live subject: scalar
// fields plus the full topic tree, in one transaction. Topics carrying
// an id are updated in place; topics without one are inserted. Applied
// topics come out APPROVED.
func (r *SubjectRepository) ApplyChange(ctx context.Context, subjectID string, data models.SubjectChangeData) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply change tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	const updateSubject = `UPDATE subjects SET name = $1, code = $2, description = $3, updated_at = $4 WHERE id = $5`
	if _, err := tx.ExecContext(ctx, updateSubject, data.Name, data.Code, data.Description, now, subjectID); err != nil {
		return fmt.Errorf("apply subject fields: %w", err)
	}

	for order, node := range data.Topics {
		if err := upsertTopicNode(ctx, tx, subjectID, nil, node, order, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply change tx: %w", err)
	}
	return nil
}

func upsertTopicNode(ctx context.Context, tx *sqlx.Tx, subjectID string, parentID *string, node *models.TopicNode, order int, now time.Time) error {
	sortOrder := node.SortOrder
	if sortOrder == 0 {
		sortOrder = order
	}

	id := node.ID
	if id != "" {
		const update = `UPDATE topics SET name = $1, parent_id = $2, sort_order = $3, status = $4, updated_at = $5
		WHERE id = $6 AND subject_id = $7`
		result, err := tx.ExecContext(ctx, update, node.Name, parentID, sortOrder, models.StatusApproved, now, id, subjectID)
		if err != nil {
			return fmt.Errorf("apply topic %s: %w", id, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check topic apply rows: %w", err)
		}
		if rows == 0 {
			// Snapshot referenced a topic deleted since submission; insert fresh.
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
		const insert = `INSERT INTO topics (id, subject_id, parent_id, name, sort_order, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
		if _, err := tx.ExecContext(ctx, insert, id, subjectID, parentID, node.Name, sortOrder, models.StatusApproved, now); err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
	}

	for childOrder, child := range node.Children {
		if err := upsertTopicNode(ctx, tx, subjectID, &id, child, childOrder, now); err != nil {
			return err
		}
	}
	return nil
}
