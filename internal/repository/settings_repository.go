package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cognify-api/internal/models"
)

// SettingsRepository persists the system settings singleton.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get fetches the settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	const query = `SELECT id, maintenance_mode, maintenance_banner, require_content_approval,
	allow_public_registration, institutional_passing_grade, institution_name, academic_year, updated_by, updated_at
	FROM system_settings WHERE id = 1`
	var settings models.SystemSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update persists the settings row.
func (r *SettingsRepository) Update(ctx context.Context, settings *models.SystemSettings) error {
	settings.ID = 1
	settings.UpdatedAt = time.Now().UTC()
	const query = `UPDATE system_settings SET
	maintenance_mode = :maintenance_mode, maintenance_banner = :maintenance_banner,
	require_content_approval = :require_content_approval, allow_public_registration = :allow_public_registration,
	institutional_passing_grade = :institutional_passing_grade, institution_name = :institution_name,
	academic_year = :academic_year, updated_by = :updated_by, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
