package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type fakeDashboardRepo struct {
	stats *models.DashboardStats
	err   error
	calls int
}

func (f *fakeDashboardRepo) Stats(context.Context) (*models.DashboardStats, error) {
	f.calls++
	return f.stats, f.err
}

type memoryCacheRepo struct {
	entries map[string][]byte
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestDashboardServiceCachesStats(t *testing.T) {
	repo := &fakeDashboardRepo{stats: &models.DashboardStats{ActiveStudents: 12, ActiveTeachers: 3, Courses: 4, AverageGrade: 13.5}}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, nil, time.Minute, zap.NewNop())

	stats, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 12, stats.ActiveStudents)

	stats, hit, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 13.5, stats.AverageGrade)
	assert.Equal(t, 1, repo.calls)
}

func TestDashboardServiceInvalidatedByWrites(t *testing.T) {
	repo := &fakeDashboardRepo{stats: &models.DashboardStats{ActiveStudents: 1}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, nil, time.Minute, zap.NewNop())
	students := NewStudentService(&mockStudentRepo{}, cache, nil, zap.NewNop())

	_, _, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = students.Create(context.Background(), validStudentInput())
	require.NoError(t, err)

	_, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	repo := &fakeDashboardRepo{stats: &models.DashboardStats{}}
	svc := NewDashboardService(repo, nil, nil, 0, nil)

	_, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDashboardServiceCacheFailureFallsThrough(t *testing.T) {
	repo := &fakeDashboardRepo{stats: &models.DashboardStats{Classes: 7}}
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.getErr = errors.New("redis down")
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, nil, time.Minute, zap.NewNop())

	stats, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, stats.Classes)
}

func TestDashboardServiceRepoError(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardRepo{err: errors.New("boom")}, nil, nil, 0, nil)

	_, _, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
