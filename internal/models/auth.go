package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Surface identifies which client application a request came from.
// The web surface serves admins and faculty, the mobile surface students.
type Surface string

const (
	SurfaceWeb    Surface = "web"
	SurfaceMobile Surface = "mobile"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RegisterRequest is the self-service registration payload. Accounts are
// only created for people already on the whitelist.
type RegisterRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	FirstName       string  `json:"first_name" validate:"required"`
	MiddleName      *string `json:"middle_name,omitempty"`
	LastName        string  `json:"last_name" validate:"required"`
	InstitutionalID string  `json:"institutional_id" validate:"required"`
	IP              string  `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID              string   `json:"id"`
	Email           string   `json:"email"`
	FullName        string   `json:"full_name"`
	InstitutionalID string   `json:"institutional_id"`
	Role            UserRole `json:"role"`
	Department      *string  `json:"department,omitempty"`
}

// JWTClaims is the token payload for both access and refresh tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}
