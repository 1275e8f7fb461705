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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

var courseIntegrity = integrityMessages{
	unique:     "this course already exists for the class and semester",
	missingRef: "subject, teacher or class does not exist",
}

var courseDeleteIntegrity = integrityMessages{inUse: "course has recorded grades"}

// CourseService manages teaching assignments.
type CourseService struct {
	repo      courseRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns courses with subject, teacher and class names.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

// Create registers a course.
func (s *CourseService) Create(ctx context.Context, req models.CourseInput) (*models.Course, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	course := &models.Course{}
	applyCourseInput(course, req)
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, writeError(err, courseIntegrity, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id int64, req models.CourseInput) (*models.Course, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course := detail.Course
	applyCourseInput(&course, req)
	if err := s.repo.Update(ctx, &course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, writeError(err, courseIntegrity, "failed to update course")
	}
	s.invalidate(ctx)
	return &course, nil
}

// Delete removes a course. Courses with recorded grades are refused.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return writeError(err, courseDeleteIntegrity, "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func applyCourseInput(course *models.Course, req models.CourseInput) {
	course.SubjectID = req.SubjectID
	course.TeacherID = req.TeacherID
	course.ClassID = req.ClassID
	course.Semester = req.Semester
	course.Year = req.Year
}
