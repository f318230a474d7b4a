package models

import "time"

// ContentModule is a learning material unit tied to a subject topic.
type ContentModule struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Description     *string        `db:"description" json:"description,omitempty"`
	Body            string         `db:"body" json:"body"`
	SubjectID       string         `db:"subject_id" json:"subject_id"`
	TopicID         *string        `db:"topic_id" json:"topic_id,omitempty"`
	Status          ApprovalStatus `db:"status" json:"status"`
	RevisionNotes   RevisionNotes  `db:"revision_notes" json:"revision_notes"`
	SubmissionCount int            `db:"submission_count" json:"submission_count"`
	EstimatedMin    int            `db:"estimated_minutes" json:"estimated_minutes"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// ContentFilter constrains content module listing queries.
type ContentFilter struct {
	SubjectID string
	TopicID   string
	Status    *ApprovalStatus
	CreatedBy string
	Search    string
	Page      int
	PageSize  int
}

// CreateContentRequest is the faculty/admin creation payload.
type CreateContentRequest struct {
	Title        string  `json:"title" validate:"required"`
	Description  *string `json:"description,omitempty"`
	Body         string  `json:"body" validate:"required"`
	SubjectID    string  `json:"subject_id" validate:"required,uuid"`
	TopicID      *string `json:"topic_id,omitempty" validate:"omitempty,uuid"`
	EstimatedMin int     `json:"estimated_minutes" validate:"gte=0"`
}

// UpdateContentRequest carries partial content updates.
type UpdateContentRequest struct {
	Title        *string         `json:"title,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Body         *string         `json:"body,omitempty"`
	TopicID      *string         `json:"topic_id,omitempty"`
	EstimatedMin *int            `json:"estimated_minutes,omitempty"`
	Status       *ApprovalStatus `json:"status,omitempty"`
}

// StudentProgress tracks a student's completion of a content module.
type StudentProgress struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	ContentID   string     `db:"content_id" json:"content_id"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
