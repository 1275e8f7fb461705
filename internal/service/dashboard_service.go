package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

const (
	dashboardCacheKey     = "dash:stats"
	dashboardCachePattern = "dash:*"
)

type dashboardRepository interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// DashboardService serves the dashboard counters, cached when Redis is on.
type DashboardService struct {
	repo     dashboardRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// Stats returns dashboard counters and reports whether they came from cache.
// A cache failure falls through to the database.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err != nil {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	start := time.Now()
	stats, err := s.repo.Stats(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("dashboard_stats", time.Since(start))
	}
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load dashboard statistics")
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, false, nil
}
