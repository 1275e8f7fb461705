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

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

var subjectIntegrity = integrityMessages{unique: "a subject with this code already exists"}

// SubjectService provides subject use-cases.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns all subjects ordered by name.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

// Create registers a subject. Codes are stored upper-cased and are unique.
func (s *SubjectService) Create(ctx context.Context, req models.SubjectInput) (*models.Subject, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	subject := &models.Subject{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, writeError(err, subjectIntegrity, "failed to create subject")
	}
	return subject, nil
}
