package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/database"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator output into a VALIDATION_ERROR naming
// the first offending field.
func validationError(err error, fallback string) *appErrors.Error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fieldMessage(fieldErrs[0]))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// integrityMessages names the user facing messages for constraint failures
// of one entity.
type integrityMessages struct {
	unique     string
	missingRef string
	inUse      string
	check      string
}

// writeError translates a failed write. Constraint violations become
// conflict or validation errors; anything else is an internal error.
func writeError(err error, msgs integrityMessages, internal string) *appErrors.Error {
	switch {
	case database.IsUniqueViolation(err) && msgs.unique != "":
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msgs.unique)
	case database.IsForeignKeyViolation(err) && msgs.inUse != "":
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msgs.inUse)
	case database.IsForeignKeyViolation(err) && msgs.missingRef != "":
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgs.missingRef)
	case database.IsCheckViolation(err) && msgs.check != "":
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgs.check)
	default:
		return appErrors.Internal(err, internal)
	}
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
