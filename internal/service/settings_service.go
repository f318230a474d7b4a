package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

const settingsCacheKey = "settings:system"

type settingsStore interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
	Update(ctx context.Context, settings *models.SystemSettings) error
}

// SettingsService manages the system settings singleton and answers
// the two hot-path questions derived from it: is maintenance on, and
// what is the passing grade. Both fail towards a usable default so a
// broken settings store degrades rather than breaks the platform.
type SettingsService struct {
	repo                settingsStore
	cache               *CacheService
	activity            ActivityRecorder
	validator           *validator.Validate
	logger              *zap.Logger
	defaultPassingGrade float64
}

// NewSettingsService constructs the service.
func NewSettingsService(repo settingsStore, cache *CacheService, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger, defaultPassingGrade float64) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if defaultPassingGrade <= 0 {
		defaultPassingGrade = 75
	}
	return &SettingsService{
		repo:                repo,
		cache:               cache,
		activity:            activity,
		validator:           validate,
		logger:              logger,
		defaultPassingGrade: defaultPassingGrade,
	}
}

// Get returns the settings row, preferring the cache.
func (s *SettingsService) Get(ctx context.Context) (*models.SystemSettings, error) {
	var cached models.SystemSettings
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, settingsCacheKey, &cached); hit {
			return &cached, nil
		}
	}
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load settings")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, settingsCacheKey, settings, time.Minute)
	}
	return settings, nil
}

// Update applies partial settings changes and invalidates the cache.
func (s *SettingsService) Update(ctx context.Context, req models.UpdateSettingsRequest, actor *models.JWTClaims) (*models.SystemSettings, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins change system settings")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load settings")
	}

	if req.MaintenanceMode != nil {
		settings.MaintenanceMode = *req.MaintenanceMode
	}
	if req.MaintenanceBanner != nil {
		settings.MaintenanceBanner = req.MaintenanceBanner
	}
	if req.RequireContentApproval != nil {
		settings.RequireContentApproval = *req.RequireContentApproval
	}
	if req.AllowPublicRegistration != nil {
		settings.AllowPublicRegistration = *req.AllowPublicRegistration
	}
	if req.InstitutionalPassingGrade != nil {
		settings.InstitutionalPassingGrade = *req.InstitutionalPassingGrade
	}
	if req.InstitutionName != nil {
		settings.InstitutionName = req.InstitutionName
	}
	if req.AcademicYear != nil {
		settings.AcademicYear = req.AcademicYear
	}
	settings.UpdatedBy = &actor.UserID

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, appErrors.Internal(err, "failed to save settings")
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, settingsCacheKey)
	}
	if s.activity != nil {
		s.activity.Record(models.ActivityLog{
			UserID: &actor.UserID,
			Action: "settings.update",
			Target: "settings",
		})
	}
	return settings, nil
}

// MaintenanceOn reports whether maintenance mode is active. Errors read
// as "off" so an unreachable settings store never locks users out.
func (s *SettingsService) MaintenanceOn(ctx context.Context) bool {
	settings, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("maintenance check failed, assuming off", zap.Error(err))
		return false
	}
	return settings.MaintenanceMode
}

// PassingGrade returns the institutional passing grade, falling back to
// the configured default when settings are unreadable.
func (s *SettingsService) PassingGrade(ctx context.Context) float64 {
	settings, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("passing grade lookup failed, using default", zap.Error(err))
		return s.defaultPassingGrade
	}
	if settings.InstitutionalPassingGrade <= 0 {
		return s.defaultPassingGrade
	}
	return settings.InstitutionalPassingGrade
}
