package models

import "time"

// ActivityLog is an append-only audit record.
type ActivityLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Target    string    `db:"target" json:"target"`
	TargetID  *string   `db:"target_id" json:"target_id,omitempty"`
	Detail    *string   `db:"detail" json:"detail,omitempty"`
	IP        *string   `db:"ip" json:"ip,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter constrains activity log queries.
type ActivityFilter struct {
	UserID   string
	Action   string
	Search   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
