package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type revisionService interface {
	Create(ctx context.Context, req models.CreateRevisionRequest, actor *models.JWTClaims) (*models.Revision, error)
	List(ctx context.Context, filter models.RevisionFilter, actor *models.JWTClaims) ([]models.Revision, int, error)
	Get(ctx context.Context, id string) (*models.Revision, error)
	Resolve(ctx context.Context, id string, req models.ResolveRevisionRequest, actor *models.JWTClaims) (*models.Revision, error)
}

// RevisionHandler manages change requests filed against published items.
type RevisionHandler struct {
	service revisionService
}

// NewRevisionHandler constructs the handler.
func NewRevisionHandler(service revisionService) *RevisionHandler {
	return &RevisionHandler{service: service}
}

// Create godoc
// @Summary File a revision request
// @Tags Revisions
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/revisions [post]
func (h *RevisionHandler) Create(c *gin.Context) {
	var req models.CreateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid revision payload"))
		return
	}
	revision, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, revision)
}

// List godoc
// @Summary List revision requests
// @Tags Revisions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/revisions [get]
func (h *RevisionHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.RevisionFilter{
		TargetType: c.Query("target_type"),
		RaisedBy:   c.Query("raised_by"),
		Page:       page,
		PageSize:   pageSize,
	}
	if v := c.Query("status"); v != "" {
		status := models.RevisionStatus(v)
		filter.Status = &status
	}

	revisions, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, revisions, paginationFor(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one revision request
// @Tags Revisions
// @Produce json
// @Param id path string true "Revision ID"
// @Success 200 {object} response.Envelope
// @Router /admin/revisions/{id} [get]
func (h *RevisionHandler) Get(c *gin.Context) {
	revision, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, revision, nil)
}

// Resolve godoc
// @Summary Mark a revision request as resolved
// @Tags Revisions
// @Accept json
// @Produce json
// @Param id path string true "Revision ID"
// @Success 200 {object} response.Envelope
// @Router /admin/revisions/{id}/resolve [post]
func (h *RevisionHandler) Resolve(c *gin.Context) {
	var req models.ResolveRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolution payload"))
		return
	}
	revision, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, revision, nil)
}
