package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type settingsService interface {
	SchoolInfo(ctx context.Context) (*models.SchoolInfo, error)
	UpdateSchoolInfo(ctx context.Context, req models.SchoolInfo) (*models.SchoolInfo, error)
	AcademicYear(ctx context.Context) (*models.AcademicYear, error)
	UpdateAcademicYear(ctx context.Context, req models.AcademicYear) (*models.AcademicYear, error)
	GradingSystem(ctx context.Context) (*models.GradingSystem, error)
	UpdateGradingSystem(ctx context.Context, req models.GradingSystem) (*models.GradingSystem, error)
}

// SettingsHandler exposes the school settings groups.
type SettingsHandler struct {
	settings settingsService
	toasts   toaster
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings settingsService, toasts toaster) *SettingsHandler {
	return &SettingsHandler{settings: settings, toasts: toasts}
}

// SchoolInfo godoc
// @Summary Get school information
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/school-info [get]
func (h *SettingsHandler) SchoolInfo(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	info, err := h.settings.SchoolInfo(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateSchoolInfo godoc
// @Summary Update school information
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.SchoolInfo true "School information"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /settings/school-info [post]
func (h *SettingsHandler) UpdateSchoolInfo(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.SchoolInfo
	if !bindJSON(c, &req) {
		return
	}
	info, err := h.settings.UpdateSchoolInfo(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "settings", "School information saved", err) {
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// AcademicYear godoc
// @Summary Get academic year bounds
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/academic-year [get]
func (h *SettingsHandler) AcademicYear(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	year, err := h.settings.AcademicYear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// UpdateAcademicYear godoc
// @Summary Update academic year bounds
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.AcademicYear true "Academic year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/academic-year [post]
func (h *SettingsHandler) UpdateAcademicYear(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.AcademicYear
	if !bindJSON(c, &req) {
		return
	}
	year, err := h.settings.UpdateAcademicYear(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "settings", "Academic year saved", err) {
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// GradingSystem godoc
// @Summary Get grading system
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/grading-system [get]
func (h *SettingsHandler) GradingSystem(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	grading, err := h.settings.GradingSystem(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grading, nil)
}

// UpdateGradingSystem godoc
// @Summary Update grading system
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.GradingSystem true "Grading system"
// @Success 200 {object} response.Envelope
// @Router /settings/grading-system [post]
func (h *SettingsHandler) UpdateGradingSystem(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.GradingSystem
	if !bindJSON(c, &req) {
		return
	}
	grading, err := h.settings.UpdateGradingSystem(c.Request.Context(), req)
	if !writeResult(c, h.toasts, session, "settings", "Grading system saved", err) {
		return
	}
	response.JSON(c, http.StatusOK, grading, nil)
}
