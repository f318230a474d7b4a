package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/repository"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type dashboardAnalyticsStore interface {
	Counts(ctx context.Context) (*repository.EntityCounts, error)
	PendingCounts(ctx context.Context) (*models.PendingCounts, error)
	AverageReadiness(ctx context.Context) (float64, error)
	UserGrowth(ctx context.Context, days int) ([]models.DailyCount, error)
	RoleDistribution(ctx context.Context) (map[string]int, error)
	CountsForFaculty(ctx context.Context, userID string) (*repository.FacultyCounts, error)
	SubjectProgressRows(ctx context.Context, studentID string) ([]models.SubjectProgress, error)
	SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectReadiness, error)
	SubmissionDays(ctx context.Context, studentID string) ([]time.Time, error)
	PassCounts(ctx context.Context, studentID string) (total, passed int, err error)
}

type recentActivityStore interface {
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type maintenanceSource interface {
	MaintenanceOn(ctx context.Context) bool
}

// DashboardService assembles the role-specific landing payloads, with
// short-lived Redis caching since every page load hits them.
type DashboardService struct {
	analytics   dashboardAnalyticsStore
	activity    recentActivityStore
	maintenance maintenanceSource
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(analytics dashboardAnalyticsStore, activity recentActivityStore, maintenance maintenanceSource, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{
		analytics:   analytics,
		activity:    activity,
		maintenance: maintenance,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Admin builds the admin landing summary.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	const key = "dashboard:admin"
	var cached models.AdminDashboard
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	counts, err := s.analytics.Counts(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load dashboard counts")
	}
	pending, err := s.analytics.PendingCounts(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending counts")
	}
	readiness, err := s.analytics.AverageReadiness(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load readiness average")
	}
	growth, err := s.analytics.UserGrowth(ctx, 7)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user growth")
	}
	roles, err := s.analytics.RoleDistribution(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load role distribution")
	}
	recent, err := s.activity.Recent(ctx, 10)
	if err != nil {
		s.logger.Warn("failed to load recent activity", zap.Error(err))
		recent = nil
	}

	dashboard := &models.AdminDashboard{
		TotalUsers:       counts.TotalUsers,
		TotalStudents:    counts.TotalStudents,
		TotalFaculty:     counts.TotalFaculty,
		TotalSubjects:    counts.TotalSubjects,
		TotalContent:     counts.TotalContent,
		TotalAssessments: counts.TotalAssessments,
		PendingApprovals: *pending,
		AverageReadiness: readiness,
		UserGrowth7d:     growth,
		RoleDistribution: roles,
		RecentActivity:   recent,
		MaintenanceMode:  s.maintenance != nil && s.maintenance.MaintenanceOn(ctx),
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	}
	return dashboard, nil
}

// Faculty builds the own-scoped faculty summary.
func (s *DashboardService) Faculty(ctx context.Context, actor *models.JWTClaims) (*models.FacultyDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	key := fmt.Sprintf("dashboard:faculty:%s", actor.UserID)
	var cached models.FacultyDashboard
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	counts, err := s.analytics.CountsForFaculty(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load faculty counts")
	}
	recent, err := s.activity.Recent(ctx, 10)
	if err != nil {
		s.logger.Warn("failed to load recent activity", zap.Error(err))
		recent = nil
	}

	dashboard := &models.FacultyDashboard{
		MyContent:         counts.MyContent,
		MyAssessments:     counts.MyAssessments,
		PendingReview:     counts.PendingReview,
		RevisionRequested: counts.RevisionRequested,
		OpenRevisions:     counts.OpenRevisions,
		RecentActivity:    recent,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	}
	return dashboard, nil
}

// Student builds the per-subject progress and readiness summary.
func (s *DashboardService) Student(ctx context.Context, actor *models.JWTClaims) (*models.StudentDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	key := fmt.Sprintf("dashboard:student:%s", actor.UserID)
	var cached models.StudentDashboard
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	progress, err := s.analytics.SubjectProgressRows(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load subject progress")
	}
	for i := range progress {
		progress[i].Level = models.ReadinessForScore(progress[i].AverageScore)
	}

	readiness, err := computeReadiness(ctx, s.analytics, actor.UserID)
	if err != nil {
		return nil, err
	}

	days, err := s.analytics.SubmissionDays(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submission days")
	}
	total, passed, err := s.analytics.PassCounts(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attempt counts")
	}

	dashboard := &models.StudentDashboard{
		Subjects:      progress,
		Readiness:     *readiness,
		StreakDays:    streakDays(days, time.Now().UTC()),
		TotalPassed:   passed,
		TotalAttempts: total,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	}
	return dashboard, nil
}
