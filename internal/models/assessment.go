package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Question is one entry of an assessment's embedded question bank.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// QuestionList is the question bank, stored as a JSONB column.
type QuestionList []Question

// Value implements driver.Valuer.
func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		q = QuestionList{}
	}
	return json.Marshal(q)
}

// Scan implements sql.Scanner.
func (q *QuestionList) Scan(src interface{}) error {
	if src == nil {
		*q = QuestionList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported question list type %T", src)
	}
	if len(raw) == 0 {
		*q = QuestionList{}
		return nil
	}
	return json.Unmarshal(raw, q)
}

// Sanitized returns a copy with the answer keys stripped, safe to
// return to students taking the assessment.
func (q QuestionList) Sanitized() QuestionList {
	out := make(QuestionList, len(q))
	for i, question := range q {
		question.Answer = ""
		out[i] = question
	}
	return out
}

// Assessment is a question set tied to a subject.
type Assessment struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Description     *string        `db:"description" json:"description,omitempty"`
	SubjectID       string         `db:"subject_id" json:"subject_id"`
	TopicID         *string        `db:"topic_id" json:"topic_id,omitempty"`
	Questions       QuestionList   `db:"questions" json:"questions"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Status          ApprovalStatus `db:"status" json:"status"`
	RevisionNotes   RevisionNotes  `db:"revision_notes" json:"revision_notes"`
	SubmissionCount int            `db:"submission_count" json:"submission_count"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// AssessmentFilter constrains assessment listing queries.
type AssessmentFilter struct {
	SubjectID string
	Status    *ApprovalStatus
	CreatedBy string
	Search    string
	Page      int
	PageSize  int
}

// CreateAssessmentRequest is the faculty/admin creation payload.
type CreateAssessmentRequest struct {
	Title           string       `json:"title" validate:"required"`
	Description     *string      `json:"description,omitempty"`
	SubjectID       string       `json:"subject_id" validate:"required,uuid"`
	TopicID         *string      `json:"topic_id,omitempty" validate:"omitempty,uuid"`
	Questions       QuestionList `json:"questions" validate:"required,min=1,dive"`
	DurationMinutes int          `json:"duration_minutes" validate:"gte=0"`
}

// UpdateAssessmentRequest carries partial assessment updates.
type UpdateAssessmentRequest struct {
	Title           *string         `json:"title,omitempty"`
	Description     *string         `json:"description,omitempty"`
	TopicID         *string         `json:"topic_id,omitempty"`
	Questions       *QuestionList   `json:"questions,omitempty"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	Status          *ApprovalStatus `json:"status,omitempty"`
}

// AnswerMap maps question id to the student's answer, stored as JSONB.
type AnswerMap map[string]string

// Value implements driver.Valuer.
func (a AnswerMap) Value() (driver.Value, error) {
	if a == nil {
		a = AnswerMap{}
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *AnswerMap) Scan(src interface{}) error {
	if src == nil {
		*a = AnswerMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported answer map type %T", src)
	}
	if len(raw) == 0 {
		*a = AnswerMap{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// SubmitAssessmentRequest is the student's answer sheet.
type SubmitAssessmentRequest struct {
	Answers    AnswerMap `json:"answers" validate:"required"`
	TimeTakenS int       `json:"time_taken_s" validate:"gte=0"`
}

// AssessmentSubmission is one immutable graded attempt.
type AssessmentSubmission struct {
	ID           string    `db:"id" json:"id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Answers      AnswerMap `db:"answers" json:"answers"`
	Score        float64   `db:"score" json:"score"`
	Correct      int       `db:"correct" json:"correct"`
	Total        int       `db:"total" json:"total"`
	Passed       bool      `db:"passed" json:"passed"`
	TimeTakenS   int       `db:"time_taken_s" json:"time_taken_s"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
}

// SubmissionResult is the graded outcome returned to the student.
type SubmissionResult struct {
	SubmissionID string    `json:"submission_id"`
	AssessmentID string    `json:"assessment_id"`
	Score        float64   `json:"score"`
	Correct      int       `json:"correct"`
	Total        int       `json:"total"`
	Passed       bool      `json:"passed"`
	PassingGrade float64   `json:"passing_grade"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
