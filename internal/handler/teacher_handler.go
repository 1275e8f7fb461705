package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, req models.TeacherInput) (*models.Teacher, error)
	Update(ctx context.Context, id int64, req models.TeacherInput) (*models.Teacher, error)
	Delete(ctx context.Context, id int64) error
}

// TeacherHandler exposes teacher endpoints.
type TeacherHandler struct {
	teachers teacherService
	toasts   toaster
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers teacherService, toasts toaster) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, toasts: toasts}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Search by name or e-mail"
// @Param status query string false "active or inactive (default active)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	filter := models.TeacherFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if status := c.Query("status"); status != "" {
		s := models.TeacherStatus(status)
		filter.Status = &s
	}
	filter.Page, filter.PageSize = pageQuery(c)

	teachers, pagination, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Get godoc
// @Summary Get teacher
// @Tags Teachers
// @Produce json
// @Param id path int true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body models.TeacherInput true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.TeacherInput
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "teachers", "Teacher added", err) {
		return
	}
	markCreated(c, teacher.ID)
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path int true "Teacher ID"
// @Param payload body models.TeacherInput true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.TeacherInput
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), id, req)
	if !writeResult(c, h.toasts, session, "teachers", "Teacher updated", err) {
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Delete godoc
// @Summary Deactivate teacher
// @Tags Teachers
// @Param id path int true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if !writeResult(c, h.toasts, session, "teachers", "Teacher removed", h.teachers.Delete(c.Request.Context(), id)) {
		return
	}
	response.NoContent(c)
}
