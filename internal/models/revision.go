package models

import "time"

// RevisionStatus tracks the lifecycle of a change request ticket.
type RevisionStatus string

const (
	RevisionStatusPending  RevisionStatus = "PENDING"
	RevisionStatusResolved RevisionStatus = "RESOLVED"
)

// Revision is a change request filed against published content or an
// assessment, reviewed by the item's author.
type Revision struct {
	ID         string         `db:"id" json:"id"`
	TargetType string         `db:"target_type" json:"target_type"`
	TargetID   string         `db:"target_id" json:"target_id"`
	Title      string         `db:"title" json:"title"`
	Details    string         `db:"details" json:"details"`
	Notes      *string        `db:"notes" json:"notes,omitempty"`
	Status     RevisionStatus `db:"status" json:"status"`
	RaisedBy   string         `db:"raised_by" json:"raised_by"`
	ResolvedBy *string        `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// RevisionFilter constrains revision listing queries.
type RevisionFilter struct {
	TargetType string
	Status     *RevisionStatus
	RaisedBy   string
	OwnerID    string
	Page       int
	PageSize   int
}

// CreateRevisionRequest files a change request against an item.
type CreateRevisionRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=CONTENT ASSESSMENT"`
	TargetID   string `json:"target_id" validate:"required,uuid"`
	Title      string `json:"title" validate:"required"`
	Details    string `json:"details" validate:"required"`
}

// ResolveRevisionRequest closes a change request with optional notes.
type ResolveRevisionRequest struct {
	Notes string `json:"notes,omitempty"`
}
