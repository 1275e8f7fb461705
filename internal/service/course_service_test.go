package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type mockCourseRepo struct {
	courses   map[int64]models.Course
	writeErr  error
	deleteErr error
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var out []models.CourseDetail
	for _, c := range m.courses {
		out = append(out, models.CourseDetail{Course: c})
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &models.CourseDetail{Course: c}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.courses == nil {
		m.courses = make(map[int64]models.Course)
	}
	course.ID = int64(len(m.courses) + 1)
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.courses, id)
	return nil
}

func validCourseInput() models.CourseInput {
	return models.CourseInput{SubjectID: 1, TeacherID: 2, ClassID: 3, Semester: " S1 ", Year: 2024}
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, nil, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), validCourseInput())
	require.NoError(t, err)
	assert.Equal(t, "S1", course.Semester)
	assert.Len(t, repo.courses, 1)
}

func TestCourseServiceCreateMissingReference(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{writeErr: &pq.Error{Code: "23503"}}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validCourseInput())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "subject, teacher or class does not exist", appErr.Message)
}

func TestCourseServiceDeleteWithGradesIsRefused(t *testing.T) {
	repo := &mockCourseRepo{
		courses:   map[int64]models.Course{1: {ID: 1}},
		deleteErr: &pq.Error{Code: "23503", Constraint: "grades_course_id_fkey"},
	}
	svc := NewCourseService(repo, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "course has recorded grades", appErr.Message)
	assert.Len(t, repo.courses, 1)
}

func TestCourseServiceUpdateAndDelete(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]models.Course{1: {ID: 1, Semester: "S1", Year: 2023}}}
	cache := &recordingInvalidator{}
	svc := NewCourseService(repo, cache, nil, zap.NewNop())

	updated, err := svc.Update(context.Background(), 1, validCourseInput())
	require.NoError(t, err)
	assert.Equal(t, 2024, updated.Year)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), appErrors.ErrNotFound)
	assert.Len(t, cache.patterns, 2)
}
