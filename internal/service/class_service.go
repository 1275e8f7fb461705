package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context) ([]models.ClassDetail, error)
	FindByID(ctx context.Context, id int64) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
}

var classIntegrity = integrityMessages{unique: "a class with this name already exists"}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService builds a ClassService.
func NewClassService(repo classRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every class with its active student count.
func (s *ClassService) List(ctx context.Context) ([]models.ClassDetail, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id int64) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Internal(err, "failed to load class")
	}
	return class, nil
}

// Create registers a class. Names are unique.
func (s *ClassService) Create(ctx context.Context, req models.ClassInput) (*models.Class, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	class := &models.Class{
		Name:        req.Name,
		Level:       req.Level,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, writeError(err, classIntegrity, "failed to create class")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}
	return class, nil
}
