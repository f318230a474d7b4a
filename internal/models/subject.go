package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Subject is a course of study. Subjects own a forest of topics.
type Subject struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Code        string         `db:"code" json:"code"`
	Description *string        `db:"description" json:"description,omitempty"`
	Status      ApprovalStatus `db:"status" json:"status"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	Topics      []*TopicNode   `db:"-" json:"topics,omitempty"`
}

// Topic is a row of the topics table. ParentID forms the tree.
type Topic struct {
	ID        string         `db:"id" json:"id"`
	SubjectID string         `db:"subject_id" json:"subject_id"`
	ParentID  *string        `db:"parent_id" json:"parent_id,omitempty"`
	Name      string         `db:"name" json:"name"`
	SortOrder int            `db:"sort_order" json:"sort_order"`
	Status    ApprovalStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// TopicNode is a topic with its children attached, used both when
// rendering the tree and when applying a proposed tree from a change
// snapshot. An empty ID marks a new topic to insert.
type TopicNode struct {
	ID        string       `json:"id,omitempty"`
	Name      string       `json:"name"`
	SortOrder int          `json:"sort_order"`
	Status    ApprovalStatus `json:"status,omitempty"`
	Children  []*TopicNode `json:"children,omitempty"`
}

// SubjectFilter constrains subject listing queries.
type SubjectFilter struct {
	Status   *ApprovalStatus
	Search   string
	Page     int
	PageSize int
}

// CreateSubjectRequest is the admin creation payload.
type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Code        string  `json:"code" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// SubjectChangeData is the faculty-proposed snapshot of a subject:
// scalar fields plus the full desired topic tree.
type SubjectChangeData struct {
	Name        string       `json:"name"`
	Code        string       `json:"code"`
	Description *string      `json:"description,omitempty"`
	Topics      []*TopicNode `json:"topics"`
}

// Value implements driver.Valuer.
func (d SubjectChangeData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *SubjectChangeData) Scan(src interface{}) error {
	if src == nil {
		*d = SubjectChangeData{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported change data type %T", src)
	}
	if len(raw) == 0 {
		*d = SubjectChangeData{}
		return nil
	}
	return json.Unmarshal(raw, d)
}

// PendingSubjectChange is a proposed subject edit awaiting admin review.
// The live subject is untouched until the change is approved.
type PendingSubjectChange struct {
	ID          string            `db:"id" json:"id"`
	SubjectID   string            `db:"subject_id" json:"subject_id"`
	ChangeData  SubjectChangeData `db:"change_data" json:"change_data"`
	Status      ApprovalStatus    `db:"status" json:"status"`
	SubmittedBy string            `db:"submitted_by" json:"submitted_by"`
	ReviewedBy  *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNote  *string           `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt  *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// ProposeSubjectChangeRequest is the faculty payload submitting a snapshot.
type ProposeSubjectChangeRequest struct {
	Name        string       `json:"name" validate:"required"`
	Code        string       `json:"code" validate:"required"`
	Description *string      `json:"description,omitempty"`
	Topics      []*TopicNode `json:"topics"`
}

// ResolveSubjectChangeRequest is the admin review payload for a change.
type ResolveSubjectChangeRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Note     string         `json:"note,omitempty"`
}
