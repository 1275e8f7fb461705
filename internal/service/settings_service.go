package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type settingRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Apply(ctx context.Context, batch *repository.SettingBatch) error
}

// SettingsService reads and writes school-wide settings. Each update is
// applied as a single batch so all keys change together or not at all.
type SettingsService struct {
	repo      settingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo settingRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// SchoolInfo returns the stored school identity. Missing keys read as empty.
func (s *SettingsService) SchoolInfo(ctx context.Context) (*models.SchoolInfo, error) {
	values, err := s.load(ctx, models.SettingSchoolName, models.SettingSchoolAddress, models.SettingSchoolPhone, models.SettingSchoolEmail)
	if err != nil {
		return nil, err
	}
	return &models.SchoolInfo{
		SchoolName: values[models.SettingSchoolName],
		Address:    values[models.SettingSchoolAddress],
		Phone:      values[models.SettingSchoolPhone],
		Email:      values[models.SettingSchoolEmail],
	}, nil
}

// UpdateSchoolInfo stores the school identity.
func (s *SettingsService) UpdateSchoolInfo(ctx context.Context, req models.SchoolInfo) (*models.SchoolInfo, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school info")
	}

	batch := repository.NewSettingBatch().
		Set(models.SettingSchoolName, req.SchoolName).
		Set(models.SettingSchoolAddress, req.Address).
		Set(models.SettingSchoolPhone, req.Phone).
		Set(models.SettingSchoolEmail, req.Email)
	if err := s.apply(ctx, batch); err != nil {
		return nil, err
	}
	return &req, nil
}

// AcademicYear returns the stored academic year. Unset or unparsable dates
// are returned as nil.
func (s *SettingsService) AcademicYear(ctx context.Context) (*models.AcademicYear, error) {
	values, err := s.load(ctx, models.SettingAcademicYearStart, models.SettingAcademicYearEnd)
	if err != nil {
		return nil, err
	}
	year := &models.AcademicYear{}
	if d, err := models.ParseDate(values[models.SettingAcademicYearStart]); err == nil {
		year.StartDate = &d
	}
	if d, err := models.ParseDate(values[models.SettingAcademicYearEnd]); err == nil {
		year.EndDate = &d
	}
	return year, nil
}

// UpdateAcademicYear stores the academic year bounds. An end date on or
// before the start date is rejected before anything is written.
func (s *SettingsService) UpdateAcademicYear(ctx context.Context, req models.AcademicYear) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid academic year")
	}
	if !req.EndDate.After(req.StartDate.Time) {
		return nil, appErrors.Validation("end_date must be after start_date")
	}

	batch := repository.NewSettingBatch().
		Set(models.SettingAcademicYearStart, req.StartDate.String()).
		Set(models.SettingAcademicYearEnd, req.EndDate.String())
	if err := s.apply(ctx, batch); err != nil {
		return nil, err
	}
	return &req, nil
}

// GradingSystem returns the grading configuration with defaults applied to
// missing or malformed values.
func (s *SettingsService) GradingSystem(ctx context.Context) (*models.GradingSystem, error) {
	values, err := s.load(ctx, models.SettingPassingGrade, models.SettingMaxGrade, models.SettingGradeScale)
	if err != nil {
		return nil, err
	}
	passing := parseFloatSetting(values[models.SettingPassingGrade], models.DefaultPassingGrade)
	maxGrade := parseFloatSetting(values[models.SettingMaxGrade], models.DefaultMaxGrade)
	scale := values[models.SettingGradeScale]
	if scale == "" {
		scale = models.DefaultGradeScale
	}
	return &models.GradingSystem{PassingGrade: &passing, MaxGrade: &maxGrade, GradeScale: scale}, nil
}

// UpdateGradingSystem stores the grading configuration. max_grade defaults
// to 20 and may not be lower than passing_grade.
func (s *SettingsService) UpdateGradingSystem(ctx context.Context, req models.GradingSystem) (*models.GradingSystem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grading system")
	}
	maxGrade := models.DefaultMaxGrade
	if req.MaxGrade != nil {
		maxGrade = *req.MaxGrade
	}
	if maxGrade < *req.PassingGrade {
		return nil, appErrors.Validation("max_grade must be greater than or equal to passing_grade")
	}
	scale := strings.TrimSpace(req.GradeScale)
	if scale == "" {
		scale = models.DefaultGradeScale
	}

	batch := repository.NewSettingBatch().
		Set(models.SettingPassingGrade, formatFloatSetting(*req.PassingGrade)).
		Set(models.SettingMaxGrade, formatFloatSetting(maxGrade)).
		Set(models.SettingGradeScale, scale)
	if err := s.apply(ctx, batch); err != nil {
		return nil, err
	}
	return &models.GradingSystem{PassingGrade: req.PassingGrade, MaxGrade: &maxGrade, GradeScale: scale}, nil
}

func (s *SettingsService) load(ctx context.Context, keys ...string) (map[string]string, error) {
	settings, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load settings")
	}
	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}
	return values, nil
}

func (s *SettingsService) apply(ctx context.Context, batch *repository.SettingBatch) error {
	if err := s.repo.Apply(ctx, batch); err != nil {
		s.logger.Error("failed to apply settings", zap.Strings("keys", batch.Keys()), zap.Error(err))
		return appErrors.Internal(err, "failed to save settings")
	}
	return nil
}

func parseFloatSetting(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}

func formatFloatSetting(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
