package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ApprovalStatus is the workflow state shared by content modules,
// assessments, subjects and topics.
type ApprovalStatus string

const (
	StatusDraft             ApprovalStatus = "DRAFT"
	StatusPending           ApprovalStatus = "PENDING"
	StatusApproved          ApprovalStatus = "APPROVED"
	StatusRejected          ApprovalStatus = "REJECTED"
	StatusRevisionRequested ApprovalStatus = "REVISION_REQUESTED"
	StatusRemovalPending    ApprovalStatus = "REMOVAL_PENDING"
)

// Valid reports whether the status is a known workflow state.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected,
		StatusRevisionRequested, StatusRemovalPending:
		return true
	}
	return false
}

// ReviewDecision enumerates admin review outcomes.
type ReviewDecision string

const (
	DecisionApprove         ReviewDecision = "APPROVE"
	DecisionReject          ReviewDecision = "REJECT"
	DecisionRequestRevision ReviewDecision = "REQUEST_REVISION"
)

// Valid reports whether the decision is a known value.
func (d ReviewDecision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestRevision:
		return true
	}
	return false
}

// ReviewRequest is the payload for deciding on a pending item.
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=APPROVE REJECT REQUEST_REVISION"`
	Note     string         `json:"note,omitempty"`
}

// RevisionNote records one revision request attached to an item.
type RevisionNote struct {
	Note string    `json:"note"`
	By   string    `json:"by"`
	Date time.Time `json:"date"`
}

// RevisionNotes is the ordered history of revision requests, stored as
// a JSONB column.
type RevisionNotes []RevisionNote

// Value implements driver.Valuer.
func (n RevisionNotes) Value() (driver.Value, error) {
	if n == nil {
		n = RevisionNotes{}
	}
	return json.Marshal(n)
}

// Scan implements sql.Scanner.
func (n *RevisionNotes) Scan(src interface{}) error {
	if src == nil {
		*n = RevisionNotes{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported revision notes type %T", src)
	}
	if len(raw) == 0 {
		*n = RevisionNotes{}
		return nil
	}
	return json.Unmarshal(raw, n)
}
