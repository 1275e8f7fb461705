package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type classService interface {
	List(ctx context.Context) ([]models.ClassDetail, error)
	Get(ctx context.Context, id int64) (*models.ClassDetail, error)
	Create(ctx context.Context, req models.ClassInput) (*models.Class, error)
}

type subjectService interface {
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, req models.SubjectInput) (*models.Subject, error)
}

// CatalogHandler exposes the class and subject reference lists.
type CatalogHandler struct {
	classes  classService
	subjects subjectService
	toasts   toaster
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(classes classService, subjects subjectService, toasts toaster) *CatalogHandler {
	return &CatalogHandler{classes: classes, subjects: subjects, toasts: toasts}
}

// ListClasses godoc
// @Summary List classes with active student counts
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	classes, err := h.classes.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// GetClass godoc
// @Summary Get class
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *CatalogHandler) GetClass(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	class, err := h.classes.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// CreateClass godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body models.ClassInput true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *CatalogHandler) CreateClass(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.ClassInput
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "classes", "Class added", err) {
		return
	}
	markCreated(c, class.ID)
	response.Created(c, class)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	subjects, err := h.subjects.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body models.SubjectInput true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.SubjectInput
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "subjects", "Subject added", err) {
		return
	}
	markCreated(c, subject.ID)
	response.Created(c, subject)
}
