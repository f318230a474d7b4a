package models

import "time"

// WhitelistStatus tracks whether a pre-approved person has registered.
type WhitelistStatus string

const (
	WhitelistStatusPending    WhitelistStatus = "PENDING"
	WhitelistStatusRegistered WhitelistStatus = "REGISTERED"
)

// WhitelistEntry pre-approves an email + institutional id for a role.
type WhitelistEntry struct {
	ID              string          `db:"id" json:"id"`
	Email           string          `db:"email" json:"email"`
	FirstName       string          `db:"first_name" json:"first_name"`
	MiddleName      *string         `db:"middle_name" json:"middle_name,omitempty"`
	LastName        string          `db:"last_name" json:"last_name"`
	InstitutionalID string          `db:"institutional_id" json:"institutional_id"`
	Role            UserRole        `db:"role" json:"role"`
	Department      *string         `db:"department" json:"department,omitempty"`
	Status          WhitelistStatus `db:"status" json:"status"`
	AddedBy         string          `db:"added_by" json:"added_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// WhitelistFilter constrains whitelist listing queries.
type WhitelistFilter struct {
	Role     *UserRole
	Status   *WhitelistStatus
	Search   string
	Page     int
	PageSize int
}

// CreateWhitelistRequest adds one person to the whitelist.
type CreateWhitelistRequest struct {
	Email           string   `json:"email" validate:"required,email"`
	FirstName       string   `json:"first_name" validate:"required"`
	MiddleName      *string  `json:"middle_name,omitempty"`
	LastName        string   `json:"last_name" validate:"required"`
	InstitutionalID string   `json:"institutional_id" validate:"required"`
	Role            UserRole `json:"role" validate:"required,oneof=ADMIN FACULTY STUDENT"`
	Department      *string  `json:"department,omitempty"`
}

// UpdateWhitelistRequest carries partial whitelist entry updates.
// Entries that already registered cannot be edited.
type UpdateWhitelistRequest struct {
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	FirstName       *string  `json:"first_name,omitempty"`
	MiddleName      *string  `json:"middle_name,omitempty"`
	LastName        *string  `json:"last_name,omitempty"`
	InstitutionalID *string  `json:"institutional_id,omitempty"`
	Department      *string  `json:"department,omitempty"`
	Role            *UserRole `json:"role,omitempty" validate:"omitempty,oneof=ADMIN FACULTY STUDENT"`
}

// BulkImportRow is one record of a bulk whitelist import (JSON or CSV).
type BulkImportRow struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name"`
	InstitutionalID string `json:"institutional_id"`
	Role            string `json:"role"`
	Department      string `json:"department"`
}

// BulkImportResult reports per-row outcomes of a bulk import.
type BulkImportResult struct {
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Failures []BulkImportError `json:"failures,omitempty"`
}

// BulkImportError names a failed row and the reason it was rejected.
type BulkImportError struct {
	Row    int    `json:"row"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}
