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

const whitelistColumns = `id, email, first_name, middle_name, last_name, institutional_id,
       role, department, status, added_by, created_at, updated_at`

// WhitelistRepository persists registration whitelist entries.
type WhitelistRepository struct {
	db *sqlx.DB
}

// NewWhitelistRepository constructs the repository.
func NewWhitelistRepository(db *sqlx.DB) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

// Create inserts a new whitelist entry.
func (r *WhitelistRepository) Create(ctx context.Context, entry *models.WhitelistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.WhitelistStatusPending
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO whitelist
	(id, email, first_name, middle_name, last_name, institutional_id, role, department, status, added_by, created_at, updated_at)
	VALUES (:id, :email, :first_name, :middle_name, :last_name, :institutional_id, :role, :department, :status, :added_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create whitelist entry: %w", err)
	}
	return nil
}

// GetByID fetches a whitelist entry by identifier.
func (r *WhitelistRepository) GetByID(ctx context.Context, id string) (*models.WhitelistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM whitelist WHERE id = $1`, whitelistColumns)
	var entry models.WhitelistEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindMatch looks up the entry for a registration attempt. Matching is
// case-insensitive on both email and institutional id.
func (r *WhitelistRepository) FindMatch(ctx context.Context, email, institutionalID string) (*models.WhitelistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM whitelist
	WHERE lower(email) = lower($1) AND lower(institutional_id) = lower($2)`, whitelistColumns)
	var entry models.WhitelistEntry
	if err := r.db.GetContext(ctx, &entry, query, email, institutionalID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ExistsByEmail reports whether an entry with the email already exists.
func (r *WhitelistRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM whitelist WHERE lower(email) = lower($1)`, email); err != nil {
		return false, fmt.Errorf("check whitelist email: %w", err)
	}
	return count > 0, nil
}

// List returns whitelist entries matching the filter plus the total count.
func (r *WhitelistRepository) List(ctx context.Context, filter models.WhitelistFilter) ([]models.WhitelistEntry, int, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR institutional_id ILIKE $%d)", idx, idx, idx, idx))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM whitelist"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count whitelist: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM whitelist%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		whitelistColumns, where, pageSize, (page-1)*pageSize)

	var entries []models.WhitelistEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list whitelist: %w", err)
	}
	return entries, total, nil
}

// Update persists mutable entry fields.
func (r *WhitelistRepository) Update(ctx context.Context, entry *models.WhitelistEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE whitelist SET
	email = :email, first_name = :first_name, middle_name = :middle_name, last_name = :last_name,
	institutional_id = :institutional_id, role = :role, department = :department, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update whitelist entry: %w", err)
	}
	return nil
}

// Delete removes a whitelist entry.
func (r *WhitelistRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM whitelist WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete whitelist entry: %w", err)
	}
	return nil
}
