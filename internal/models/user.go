package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// UserStatus captures the lifecycle of an account.
type UserStatus string

const (
	UserStatusPending     UserStatus = "PENDING"
	UserStatusActive      UserStatus = "ACTIVE"
	UserStatusInactive    UserStatus = "INACTIVE"
	UserStatusDeactivated UserStatus = "DEACTIVATED"
)

// User represents an application user stored in the users table.
type User struct {
	ID              string     `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	FirstName       string     `db:"first_name" json:"first_name"`
	MiddleName      *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName        string     `db:"last_name" json:"last_name"`
	InstitutionalID string     `db:"institutional_id" json:"institutional_id"`
	Role            UserRole   `db:"role" json:"role"`
	RoleID          *string    `db:"role_id" json:"role_id,omitempty"`
	Department      *string    `db:"department" json:"department,omitempty"`
	Status          UserStatus `db:"status" json:"status"`
	LastLogin       *time.Time `db:"last_login" json:"last_login,omitempty"`
	LoginCount      int        `db:"login_count" json:"login_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the user's name parts, skipping an empty middle name.
func (u User) FullName() string {
	name := u.FirstName
	if u.MiddleName != nil && *u.MiddleName != "" {
		name += " " + *u.MiddleName
	}
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Status   *UserStatus
	Search   string
	Page     int
	PageSize int
}

// CreateUserRequest is the admin payload for creating an account directly.
type CreateUserRequest struct {
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	FirstName       string   `json:"first_name" validate:"required"`
	MiddleName      *string  `json:"middle_name,omitempty"`
	LastName        string   `json:"last_name" validate:"required"`
	InstitutionalID string   `json:"institutional_id" validate:"required"`
	Role            UserRole `json:"role" validate:"required,oneof=ADMIN FACULTY STUDENT"`
	Department      *string  `json:"department,omitempty"`
}

// UpdateUserRequest carries partial updates for a user profile.
type UpdateUserRequest struct {
	FirstName  *string     `json:"first_name,omitempty"`
	MiddleName *string     `json:"middle_name,omitempty"`
	LastName   *string     `json:"last_name,omitempty"`
	Department *string     `json:"department,omitempty"`
	Status     *UserStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING ACTIVE INACTIVE DEACTIVATED"`
	RoleID     *string     `json:"role_id,omitempty"`
}
