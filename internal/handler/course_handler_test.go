package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type fakeCourseService struct {
	filter models.CourseFilter
	err    error
}

func (f *fakeCourseService) List(_ context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	f.filter = filter
	return []models.CourseDetail{}, &models.Pagination{Page: 1, PageSize: 20}, f.err
}

func (f *fakeCourseService) Get(_ context.Context, id int64) (*models.CourseDetail, error) {
	return &models.CourseDetail{Course: models.Course{ID: id}}, f.err
}

func (f *fakeCourseService) Create(_ context.Context, req models.CourseInput) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Course{ID: 11, SubjectID: req.SubjectID}, nil
}

func (f *fakeCourseService) Update(_ context.Context, id int64, _ models.CourseInput) (*models.Course, error) {
	return &models.Course{ID: id}, f.err
}

func (f *fakeCourseService) Delete(context.Context, int64) error { return f.err }

func TestCourseHandlerListFilters(t *testing.T) {
	svc := &fakeCourseService{}
	h := NewCourseHandler(svc, nil)
	c, rec := newTestContext(http.MethodGet, "/api/v1/courses?teacher_id=4&year=2024", nil)
	withSession(c, testSession("1", models.RoleTeacher))

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.TeacherID)
	assert.Equal(t, int64(4), *svc.filter.TeacherID)
	require.NotNil(t, svc.filter.Year)
	assert.Equal(t, 2024, *svc.filter.Year)
	assert.Nil(t, svc.filter.ClassID)
}

func TestCourseHandlerListRejectsBadYear(t *testing.T) {
	h := NewCourseHandler(&fakeCourseService{}, nil)
	c, rec := newTestContext(http.MethodGet, "/api/v1/courses?year=twenty", nil)
	withSession(c, testSession("1", models.RoleTeacher))

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseHandlerDeleteWithGradesConflicts(t *testing.T) {
	toasts := &recordingToaster{}
	h := NewCourseHandler(&fakeCourseService{err: appErrors.Clone(appErrors.ErrConflict, "course has recorded grades")}, toasts)
	c, rec := newTestContext(http.MethodDelete, "/api/v1/courses/3", nil)
	c.Params = append(c.Params, ginParam("id", "3"))
	withSession(c, testSession("1", models.RoleAdmin))

	h.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "course has recorded grades", toasts.last(t).message)
}

type fakeGradeService struct {
	filter  models.GradeFilter
	created models.GradeInput
	err     error
}

func (f *fakeGradeService) List(_ context.Context, filter models.GradeFilter) ([]models.GradeDetail, *models.Pagination, error) {
	f.filter = filter
	return []models.GradeDetail{}, &models.Pagination{Page: 1, PageSize: 20}, f.err
}

func (f *fakeGradeService) Get(_ context.Context, id int64) (*models.GradeDetail, error) {
	return &models.GradeDetail{Grade: models.Grade{ID: id}}, f.err
}

func (f *fakeGradeService) Create(_ context.Context, req models.GradeInput) (*models.Grade, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Grade{ID: 5, GradeValue: *req.GradeValue, MaxGrade: models.DefaultMaxGrade}, nil
}

func (f *fakeGradeService) Update(_ context.Context, id int64, _ models.GradeInput) (*models.Grade, error) {
	return &models.Grade{ID: id}, f.err
}

func (f *fakeGradeService) Delete(context.Context, int64) error { return f.err }

func TestGradeHandlerListFilters(t *testing.T) {
	svc := &fakeGradeService{}
	h := NewGradeHandler(svc, nil)
	c, rec := newTestContext(http.MethodGet, "/api/v1/grades?student_id=8&course_id=2&grade_type=exam", nil)
	withSession(c, testSession("1", models.RoleTeacher))

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), *svc.filter.StudentID)
	assert.Equal(t, int64(2), *svc.filter.CourseID)
	assert.Equal(t, models.GradeTypeExam, *svc.filter.Type)
}

func TestGradeHandlerCreateKeepsExplicitZero(t *testing.T) {
	svc := &fakeGradeService{}
	h := NewGradeHandler(svc, &recordingToaster{})
	c, rec := newTestContext(http.MethodPost, "/api/v1/grades", map[string]interface{}{
		"student_id":  1,
		"course_id":   2,
		"grade_value": 0,
		"grade_type":  "quiz",
	})
	withSession(c, testSession("1", models.RoleTeacher))

	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created.GradeValue)
	assert.Zero(t, *svc.created.GradeValue)
}

func TestGradeHandlerCreateOutOfRange(t *testing.T) {
	toasts := &recordingToaster{}
	h := NewGradeHandler(&fakeGradeService{err: appErrors.Validation("grade_value must be between 0 and 20")}, toasts)
	c, rec := newTestContext(http.MethodPost, "/api/v1/grades", map[string]interface{}{"grade_value": 25})
	withSession(c, testSession("1", models.RoleTeacher))

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ToastError, toasts.last(t).level)
}
