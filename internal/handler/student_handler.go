package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.StudentDetail, error)
	Create(ctx context.Context, req models.StudentInput) (*models.Student, error)
	Update(ctx context.Context, id int64, req models.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
	toasts   toaster
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, toasts toaster) *StudentHandler {
	return &StudentHandler{students: students, toasts: toasts}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or e-mail"
// @Param class_id query int false "Filter by class"
// @Param status query string false "active, inactive or graduated (default active)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	classID, ok := int64Query(c, "class_id")
	if !ok {
		return
	}
	filter.ClassID = classID
	if status := c.Query("status"); status != "" {
		s := models.StudentStatus(status)
		filter.Status = &s
	}
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.StudentInput true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.StudentInput
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "students", "Student added", err) {
		return
	}
	markCreated(c, student.ID)
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body models.StudentInput true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.StudentInput
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), id, req)
	if !writeResult(c, h.toasts, session, "students", "Student updated", err) {
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Deactivate student
// @Tags Students
// @Param id path int true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if !writeResult(c, h.toasts, session, "students", "Student removed", h.students.Delete(c.Request.Context(), id)) {
		return
	}
	response.NoContent(c)
}
