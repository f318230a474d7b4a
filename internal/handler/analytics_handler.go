package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/service"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type analyticsService interface {
	Readiness(ctx context.Context, studentID string) (*models.StudentReadiness, error)
	StudentRecord(ctx context.Context, studentID string) (*models.StudentRecord, error)
	Roster(ctx context.Context, filter models.RosterFilter) ([]models.StudentRosterRow, int, error)
	ExportRoster(ctx context.Context, format service.ExportFormat) ([]byte, string, error)
}

// AnalyticsHandler serves readiness analytics and the student roster.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Roster godoc
// @Summary List students with readiness aggregates
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/roster [get]
func (h *AnalyticsHandler) Roster(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.RosterFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("level"); v != "" {
		level := models.ReadinessLevel(v)
		filter.Level = &level
	}

	rows, total, err := h.service.Roster(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, paginationFor(page, pageSize, total))
}

// StudentRecord godoc
// @Summary Full academic record for one student
// @Tags Analytics
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/students/{id} [get]
func (h *AnalyticsHandler) StudentRecord(c *gin.Context) {
	record, err := h.service.StudentRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Readiness godoc
// @Summary Readiness breakdown for the authenticated student
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/readiness [get]
func (h *AnalyticsHandler) Readiness(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	readiness, err := h.service.Readiness(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, readiness, nil)
}

// ExportRoster godoc
// @Summary Export the roster as CSV or PDF
// @Tags Analytics
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /admin/analytics/roster/export [get]
func (h *AnalyticsHandler) ExportRoster(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))

	data, contentType, err := h.service.ExportRoster(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("roster-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
