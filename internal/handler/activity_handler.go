package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service activityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List godoc
// @Summary List activity log entries
// @Tags Activity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.ActivityFilter{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}

	logs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, paginationFor(page, pageSize, total))
}

// Recent godoc
// @Summary Return the most recent activity entries
// @Tags Activity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/activity/recent [get]
func (h *ActivityHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	logs, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
