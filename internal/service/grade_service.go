package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.GradeDetail, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id int64) error
}

var gradeIntegrity = integrityMessages{
	missingRef: "student or course does not exist",
	check:      "grade_value must be between 0 and max_grade",
}

// GradeService records and edits student marks.
type GradeService struct {
	repo      gradeRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns grades with student, subject and class names.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, *models.Pagination, error) {
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list grades")
	}
	return grades, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a grade by id.
func (s *GradeService) Get(ctx context.Context, id int64) (*models.GradeDetail, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Internal(err, "failed to load grade")
	}
	return grade, nil
}

// Create records a grade. max_grade defaults to 20 and the value must lie
// within [0, max_grade].
func (s *GradeService) Create(ctx context.Context, req models.GradeInput) (*models.Grade, error) {
	grade := &models.Grade{DateRecorded: models.NewDate(s.now())}
	if err := s.apply(grade, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, writeError(err, gradeIntegrity, "failed to record grade")
	}
	s.invalidate(ctx)
	return grade, nil
}

// Update edits a grade under the same range rules as Create.
func (s *GradeService) Update(ctx context.Context, id int64, req models.GradeInput) (*models.Grade, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	grade := detail.Grade
	if err := s.apply(&grade, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &grade); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, writeError(err, gradeIntegrity, "failed to update grade")
	}
	s.invalidate(ctx)
	return &grade, nil
}

// Delete removes a grade.
func (s *GradeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Internal(err, "failed to delete grade")
	}
	s.invalidate(ctx)
	return nil
}

func (s *GradeService) apply(grade *models.Grade, req models.GradeInput) error {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid grade payload")
	}
	maxGrade := models.DefaultMaxGrade
	if req.MaxGrade != nil {
		maxGrade = *req.MaxGrade
	}
	if *req.GradeValue > maxGrade {
		return appErrors.Validation(fmt.Sprintf("grade_value must be between 0 and %g", maxGrade))
	}

	grade.StudentID = req.StudentID
	grade.CourseID = req.CourseID
	grade.GradeValue = *req.GradeValue
	grade.MaxGrade = maxGrade
	grade.GradeType = req.GradeType
	grade.Comment = req.Comment
	if req.DateRecorded != nil {
		grade.DateRecorded = *req.DateRecorded
	}
	return nil
}

func (s *GradeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
