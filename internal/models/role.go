package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Permissions is a JSONB string list of permission keys.
type Permissions []string

// Value implements driver.Valuer.
func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		p = Permissions{}
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Permissions) Scan(src interface{}) error {
	if src == nil {
		*p = Permissions{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported permissions type %T", src)
	}
	if len(raw) == 0 {
		*p = Permissions{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Role is a named permission set. System roles cannot be modified or
// deleted, and no role with assigned users can be deleted.
type Role struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Description *string     `db:"description" json:"description,omitempty"`
	Permissions Permissions `db:"permissions" json:"permissions"`
	IsSystem    bool        `db:"is_system" json:"is_system"`
	UserCount   int         `db:"user_count" json:"user_count"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// CreateRoleRequest is the admin payload for a custom role.
type CreateRoleRequest struct {
	Name        string      `json:"name" validate:"required"`
	Description *string     `json:"description,omitempty"`
	Permissions Permissions `json:"permissions"`
}

// UpdateRoleRequest carries partial role updates.
type UpdateRoleRequest struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty"`
}
