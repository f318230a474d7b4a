package models

import "time"

// SystemSettings is the singleton configuration row.
type SystemSettings struct {
	ID                       int       `db:"id" json:"-"`
	MaintenanceMode          bool      `db:"maintenance_mode" json:"maintenance_mode"`
	MaintenanceBanner        *string   `db:"maintenance_banner" json:"maintenance_banner,omitempty"`
	RequireContentApproval   bool      `db:"require_content_approval" json:"require_content_approval"`
	AllowPublicRegistration  bool      `db:"allow_public_registration" json:"allow_public_registration"`
	InstitutionalPassingGrade float64  `db:"institutional_passing_grade" json:"institutional_passing_grade"`
	InstitutionName          *string   `db:"institution_name" json:"institution_name,omitempty"`
	AcademicYear             *string   `db:"academic_year" json:"academic_year,omitempty"`
	UpdatedBy                *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateSettingsRequest carries partial settings updates.
type UpdateSettingsRequest struct {
	MaintenanceMode          *bool    `json:"maintenance_mode,omitempty"`
	MaintenanceBanner        *string  `json:"maintenance_banner,omitempty"`
	RequireContentApproval   *bool    `json:"require_content_approval,omitempty"`
	AllowPublicRegistration  *bool    `json:"allow_public_registration,omitempty"`
	InstitutionalPassingGrade *float64 `json:"institutional_passing_grade,omitempty" validate:"omitempty,gte=0,lte=100"`
	InstitutionName          *string  `json:"institution_name,omitempty"`
	AcademicYear             *string  `json:"academic_year,omitempty"`
}
