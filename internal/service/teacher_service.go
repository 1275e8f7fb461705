package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id int64) error
}

var teacherIntegrity = integrityMessages{
	unique:     "a teacher with this email already exists",
	missingRef: "linked user does not exist",
}

// TeacherService handles teacher use-cases.
type TeacherService struct {
	repo      teacherRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	return teachers, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher. The hire date defaults to today.
func (s *TeacherService) Create(ctx context.Context, req models.TeacherInput) (*models.Teacher, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	teacher := &models.Teacher{Status: models.TeacherStatusActive, HireDate: models.NewDate(time.Now())}
	applyTeacherInput(teacher, req)

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, writeError(err, teacherIntegrity, "failed to create teacher")
	}
	s.invalidate(ctx)
	return teacher, nil
}

// Update modifies a teacher.
func (s *TeacherService) Update(ctx context.Context, id int64, req models.TeacherInput) (*models.Teacher, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyTeacherInput(teacher, req)

	if err := s.repo.Update(ctx, teacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, writeError(err, teacherIntegrity, "failed to update teacher")
	}
	s.invalidate(ctx)
	return teacher, nil
}

// Delete soft deletes a teacher.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Internal(err, "failed to delete teacher")
	}
	s.invalidate(ctx)
	return nil
}

func (s *TeacherService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func applyTeacherInput(teacher *models.Teacher, req models.TeacherInput) {
	teacher.FirstName = req.FirstName
	teacher.LastName = req.LastName
	teacher.Email = req.Email
	teacher.Phone = req.Phone
	teacher.Speciality = req.Speciality
	teacher.UserID = req.UserID
	if req.HireDate != nil {
		teacher.HireDate = *req.HireDate
	}
	if req.Status != nil {
		teacher.Status = *req.Status
	}
}
