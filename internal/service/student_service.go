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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id int64) error
}

// cacheInvalidator drops cached aggregates after a write.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

var studentIntegrity = integrityMessages{
	unique:     "a student with this email already exists",
	missingRef: "class does not exist",
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata. Active students only unless
// the filter names a status.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student by id, including inactive ones.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req models.StudentInput) (*models.Student, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student := &models.Student{Status: models.StudentStatusActive, EnrollmentDate: models.NewDate(time.Now())}
	applyStudentInput(student, req)

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, writeError(err, studentIntegrity, "failed to create student")
	}
	s.invalidate(ctx)
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id int64, req models.StudentInput) (*models.Student, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student := detail.Student
	applyStudentInput(&student, req)

	if err := s.repo.Update(ctx, &student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, writeError(err, studentIntegrity, "failed to update student")
	}
	s.invalidate(ctx)
	return &student, nil
}

// Delete soft deletes a student by flipping its status to inactive. The row
// stays resolvable by id for historical grades.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to delete student")
	}
	s.invalidate(ctx)
	return nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func applyStudentInput(student *models.Student, req models.StudentInput) {
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Email = req.Email
	student.Phone = req.Phone
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.ParentName = req.ParentName
	student.ParentPhone = req.ParentPhone
	student.ParentEmail = req.ParentEmail
	student.ClassID = req.ClassID
	if req.EnrollmentDate != nil {
		student.EnrollmentDate = *req.EnrollmentDate
	}
	if req.Status != nil {
		student.Status = *req.Status
	}
}
