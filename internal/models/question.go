package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// OptionList holds the ordered answer options of a bank question,
// stored as a JSONB column.
type OptionList []string

// Value implements driver.Valuer.
func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		o = OptionList{}
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner.
func (o *OptionList) Scan(src interface{}) error {
	if src == nil {
		*o = OptionList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported option list type %T", src)
	}
	if len(raw) == 0 {
		*o = OptionList{}
		return nil
	}
	return json.Unmarshal(raw, o)
}

// BankQuestion is a standalone reusable question owned by its author.
// Unlike an assessment's embedded questions it lives on its own and
// records the correct option by index.
type BankQuestion struct {
	ID            string     `db:"id" json:"id"`
	Text          string     `db:"text" json:"text"`
	Options       OptionList `db:"options" json:"options"`
	CorrectAnswer int        `db:"correct_answer" json:"correct_answer"`
	AuthorID      string     `db:"author_id" json:"author_id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// BankQuestionFilter constrains question bank listing queries.
type BankQuestionFilter struct {
	AuthorID string
	Search   string
	Page     int
	PageSize int
}

// CreateBankQuestionRequest is the faculty/admin creation payload.
type CreateBankQuestionRequest struct {
	Text          string     `json:"text" validate:"required"`
	Options       OptionList `json:"options" validate:"required,min=2"`
	CorrectAnswer int        `json:"correct_answer" validate:"gte=0"`
}

// UpdateBankQuestionRequest carries partial question updates.
type UpdateBankQuestionRequest struct {
	Text          *string     `json:"text,omitempty"`
	Options       *OptionList `json:"options,omitempty"`
	CorrectAnswer *int        `json:"correct_answer,omitempty"`
}
