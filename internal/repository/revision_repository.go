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

const revisionColumns = `r.id, r.target_type, r.target_id, r.title, r.details, r.notes, r.status,
       r.raised_by, r.resolved_by, r.resolved_at, r.created_at`

// RevisionRepository persists change request tickets.
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository constructs the repository.
func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Create inserts a new revision ticket.
func (r *RevisionRepository) Create(ctx context.Context, revision *models.Revision) error {
	if revision.ID == "" {
		revision.ID = uuid.NewString()
	}
	if revision.Status == "" {
		revision.Status = models.RevisionStatusPending
	}
	if revision.CreatedAt.IsZero() {
		revision.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO revisions (id, target_type, target_id, title, details, status, raised_by, created_at)
	VALUES (:id, :target_type, :target_id, :title, :details, :status, :raised_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, revision); err != nil {
		return fmt.Errorf("create revision: %w", err)
	}
	return nil
}

// GetByID fetches a revision ticket by identifier.
func (r *RevisionRepository) GetByID(ctx context.Context, id string) (*models.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM revisions r WHERE r.id = $1`, revisionColumns)
	var revision models.Revision
	if err := r.db.GetContext(ctx, &revision, query, id); err != nil {
		return nil, err
	}
	return &revision, nil
}

// List returns tickets matching the filter plus the total count. When
// OwnerID is set the result is scoped to tickets against items authored
// by that user.
func (r *RevisionRepository) List(ctx context.Context, filter models.RevisionFilter) ([]models.Revision, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	joins := ""
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf(`(
	(r.target_type = 'CONTENT' AND EXISTS (SELECT 1 FROM content_modules c WHERE c.id = r.target_id AND c.created_by = $%d))
	OR (r.target_type = 'ASSESSMENT' AND EXISTS (SELECT 1 FROM assessments a WHERE a.id = r.target_id AND a.created_by = $%d)))`, idx, idx))
	}
	if filter.TargetType != "" {
		args = append(args, filter.TargetType)
		conditions = append(conditions, fmt.Sprintf("r.target_type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if filter.RaisedBy != "" {
		args = append(args, filter.RaisedBy)
		conditions = append(conditions, fmt.Sprintf("r.raised_by = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM revisions r"+joins+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count revisions: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM revisions r%s%s ORDER BY r.created_at DESC LIMIT %d OFFSET %d`,
		revisionColumns, joins, where, pageSize, (page-1)*pageSize)

	var revisions []models.Revision
	if err := r.db.SelectContext(ctx, &revisions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list revisions: %w", err)
	}
	return revisions, total, nil
}

// Resolve closes a pending ticket. Conditional on PENDING; a concurrent
// resolution sees sql.ErrNoRows.
func (r *RevisionRepository) Resolve(ctx context.Context, id, resolvedBy string, notes *string) error {
	query := fmt.Sprintf(`UPDATE revisions SET status = $1, resolved_by = $2, notes = $3, resolved_at = $4
	WHERE id = $5 AND status = '%s'`, models.RevisionStatusPending)
	result, err := r.db.ExecContext(ctx, query, models.RevisionStatusResolved, resolvedBy, notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolve revision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check revision resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
