package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type authUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	CreateFromWhitelist(ctx context.Context, user *models.User, whitelistID string) error
	RecordLogin(ctx context.Context, id string) error
}

type authWhitelistStore interface {
	FindMatch(ctx context.Context, email, institutionalID string) (*models.WhitelistEntry, error)
}

type maintenanceChecker interface {
	MaintenanceOn(ctx context.Context) bool
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// AuthService provides surface-aware login and whitelist-gated
// registration. The web surface serves admins and faculty, the mobile
// surface students; crossing over yields a WRONG_APP error rather than
// a generic denial so clients can point users at the right app.
type AuthService struct {
	users       authUserStore
	whitelist   authWhitelistStore
	maintenance maintenanceChecker
	activity    ActivityRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(users authUserStore, whitelist authWhitelistStore, maintenance maintenanceChecker, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:       users,
		whitelist:   whitelist,
		maintenance: maintenance,
		activity:    activity,
		validator:   validate,
		logger:      logger,
		config:      config,
	}
}

// surfaceAllows reports whether a role may use the given surface.
func surfaceAllows(surface models.Surface, role models.UserRole) bool {
	switch surface {
	case models.SurfaceWeb:
		return role == models.RoleAdmin || role == models.RoleFaculty
	case models.SurfaceMobile:
		return role == models.RoleStudent
	}
	return false
}

// expectedRole is the role a self-registration through the surface claims.
func expectedRole(surface models.Surface) models.UserRole {
	if surface == models.SurfaceMobile {
		return models.RoleStudent
	}
	return models.RoleFaculty
}

func wrongSurfaceMessage(role models.UserRole) string {
	if role == models.RoleStudent {
		return "this account belongs to the mobile app, please sign in there"
	}
	return "this account belongs to the web portal, please sign in there"
}

// Login authenticates a user on a surface and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, surface models.Surface) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if !surfaceAllows(surface, user.Role) {
		return nil, appErrors.Clone(appErrors.ErrWrongSurface, wrongSurfaceMessage(user.Role))
	}

	switch user.Status {
	case models.UserStatusActive:
	case models.UserStatusPending:
		return nil, appErrors.Clone(appErrors.ErrAccountPending, "account is awaiting verification")
	default:
		return nil, appErrors.Clone(appErrors.ErrAccountDeactivated, "account has been deactivated")
	}

	// Maintenance keeps non-admin users out; the check fails open so a
	// broken settings store never locks everyone out.
	if user.Role != models.RoleAdmin && s.maintenance != nil && s.maintenance.MaintenanceOn(ctx) {
		return nil, appErrors.Clone(appErrors.ErrMaintenance, "the platform is under maintenance, please try again later")
	}

	accessToken, err := s.generateToken(user, "access", s.config.AccessExpiry)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	refreshToken, err := s.generateToken(user, "refresh", s.config.RefreshExpiry)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.recordActivity(user.ID, "auth.login", req.IP)

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		User:         userInfo(user),
	}, nil
}

// Register creates an account for a whitelisted person. The new user
// and the whitelist flip are committed atomically; the account comes
// out PENDING until an admin verifies it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, surface models.Surface) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	entry, err := s.whitelist.FindMatch(ctx, req.Email, req.InstitutionalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotWhitelisted,
				"your email and institutional id are not registered, contact your administrator")
		}
		return nil, appErrors.Internal(err, "failed to check whitelist")
	}
	if entry.Status == models.WhitelistStatusRegistered {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this whitelist entry has already been used to register")
	}
	if entry.Role != expectedRole(surface) {
		return nil, appErrors.Clone(appErrors.ErrWrongSurface, wrongSurfaceMessage(entry.Role))
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		ID:              uuid.NewString(),
		Email:           req.Email,
		PasswordHash:    string(hash),
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		InstitutionalID: entry.InstitutionalID,
		Role:            entry.Role,
		Department:      entry.Department,
		Status:          models.UserStatusPending,
	}
	if err := s.users.CreateFromWhitelist(ctx, user, entry.ID); err != nil {
		return nil, appErrors.Internal(err, "failed to register account")
	}
	s.recordActivity(user.ID, "auth.register", req.IP)
	return user, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	claims, err := s.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if user.Status != models.UserStatusActive {
		return nil, appErrors.Clone(appErrors.ErrAccountDeactivated, "account is not active")
	}

	accessToken, err := s.generateToken(user, "access", s.config.AccessExpiry)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	refreshToken, err := s.generateToken(user, "refresh", s.config.RefreshExpiry)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}

	return &models.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	return user, nil
}

// ParseToken validates a signed token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) generateToken(user *models.User, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:              user.ID,
		Email:           user.Email,
		FullName:        user.FullName(),
		InstitutionalID: user.InstitutionalID,
		Role:            user.Role,
		Department:      user.Department,
	}
}

func (s *AuthService) recordActivity(userID, action, ip string) {
	if s.activity == nil {
		return
	}
	log := models.ActivityLog{
		UserID: &userID,
		Action: action,
		Target: "auth",
	}
	if ip != "" {
		log.IP = &ip
	}
	s.activity.Record(log)
}
