package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type gradeService interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.GradeDetail, error)
	Create(ctx context.Context, req models.GradeInput) (*models.Grade, error)
	Update(ctx context.Context, id int64, req models.GradeInput) (*models.Grade, error)
	Delete(ctx context.Context, id int64) error
}

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades gradeService
	toasts toaster
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService, toasts toaster) *GradeHandler {
	return &GradeHandler{grades: grades, toasts: toasts}
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Param student_id query int false "Student"
// @Param course_id query int false "Course"
// @Param grade_type query string false "homework, quiz, exam or project"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	var filter models.GradeFilter
	var ok bool
	if filter.StudentID, ok = int64Query(c, "student_id"); !ok {
		return
	}
	if filter.CourseID, ok = int64Query(c, "course_id"); !ok {
		return
	}
	if raw := c.Query("grade_type"); raw != "" {
		t := models.GradeType(raw)
		filter.Type = &t
	}
	filter.Page, filter.PageSize = pageQuery(c)

	grades, pagination, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, pagination)
}

// Get godoc
// @Summary Get grade
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	grade, err := h.grades.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Create godoc
// @Summary Record grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.GradeInput true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.GradeInput
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.grades.Create(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "grades", "Grade recorded", err) {
		return
	}
	markCreated(c, grade.ID)
	response.Created(c, grade)
}

// Update godoc
// @Summary Update grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path int true "Grade ID"
// @Param payload body models.GradeInput true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.GradeInput
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), id, req)
	if !writeResult(c, h.toasts, session, "grades", "Grade updated", err) {
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Delete godoc
// @Summary Delete grade
// @Tags Grades
// @Param id path int true "Grade ID"
// @Success 204
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if !writeResult(c, h.toasts, session, "grades", "Grade deleted", h.grades.Delete(c.Request.Context(), id)) {
		return
	}
	response.NoContent(c)
}
