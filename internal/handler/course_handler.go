package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.CourseDetail, error)
	Create(ctx context.Context, req models.CourseInput) (*models.Course, error)
	Update(ctx context.Context, id int64, req models.CourseInput) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	courses courseService
	toasts  toaster
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService, toasts toaster) *CourseHandler {
	return &CourseHandler{courses: courses, toasts: toasts}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param class_id query int false "Class"
// @Param teacher_id query int false "Teacher"
// @Param subject_id query int false "Subject"
// @Param year query int false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	var filter models.CourseFilter
	var ok bool
	if filter.ClassID, ok = int64Query(c, "class_id"); !ok {
		return
	}
	if filter.TeacherID, ok = int64Query(c, "teacher_id"); !ok {
		return
	}
	if filter.SubjectID, ok = int64Query(c, "subject_id"); !ok {
		return
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Validation("year must be an integer"))
			return
		}
		filter.Year = &year
	}
	filter.Page, filter.PageSize = pageQuery(c)

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	course, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.CourseInput true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CourseInput
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "courses", "Course added", err) {
		return
	}
	markCreated(c, course.ID)
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.CourseInput true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.CourseInput
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Update(c.Request.Context(), id, req)
	if !writeResult(c, h.toasts, session, "courses", "Course updated", err) {
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Description Refused with 409 while grades reference the course.
// @Tags Courses
// @Param id path int true "Course ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if !writeResult(c, h.toasts, session, "courses", "Course deleted", h.courses.Delete(c.Request.Context(), id)) {
		return
	}
	response.NoContent(c)
}
