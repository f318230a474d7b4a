package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type contentService interface {
	Create(ctx context.Context, req models.CreateContentRequest, actor *models.JWTClaims) (*models.ContentModule, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ContentModule, error)
	List(ctx context.Context, filter models.ContentFilter, actor *models.JWTClaims) ([]models.ContentModule, int, error)
	Update(ctx context.Context, id string, req models.UpdateContentRequest, actor *models.JWTClaims) (*models.ContentModule, error)
	SubmitForReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.ContentModule, error)
	Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.ContentModule, error)
	RequestRemoval(ctx context.Context, id string, actor *models.JWTClaims) (*models.ContentModule, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	MarkComplete(ctx context.Context, contentID string, actor *models.JWTClaims) error
	Progress(ctx context.Context, actor *models.JWTClaims) (map[string]bool, error)
}

// ContentHandler manages learning modules and their approval workflow.
type ContentHandler struct {
	service contentService
}

// NewContentHandler constructs the handler.
func NewContentHandler(service contentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Create godoc
// @Summary Create a content module
// @Tags Content
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /faculty/content [post]
func (h *ContentHandler) Create(c *gin.Context) {
	var req models.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid content payload"))
		return
	}
	content, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, content)
}

// List godoc
// @Summary List content modules
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/content [get]
func (h *ContentHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.ContentFilter{
		SubjectID: c.Query("subject_id"),
		TopicID:   c.Query("topic_id"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
	}
	if v := c.Query("status"); v != "" {
		status := models.ApprovalStatus(v)
		filter.Status = &status
	}

	content, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, paginationFor(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one content module
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/content/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Update godoc
// @Summary Update a content module
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/content/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	var req models.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid content payload"))
		return
	}
	content, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Submit godoc
// @Summary Submit a content module for review
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/content/{id}/submit [post]
func (h *ContentHandler) Submit(c *gin.Context) {
	content, err := h.service.SubmitForReview(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Review godoc
// @Summary Apply a review decision to a content module
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /admin/content/{id}/review [post]
func (h *ContentHandler) Review(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	content, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// RequestRemoval godoc
// @Summary Request removal of a published content module
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/content/{id}/request-removal [post]
func (h *ContentHandler) RequestRemoval(c *gin.Context) {
	content, err := h.service.RequestRemoval(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Delete godoc
// @Summary Delete an unpublished content module
// @Tags Content
// @Param id path string true "Content ID"
// @Success 204
// @Router /faculty/content/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkComplete godoc
// @Summary Mark a content module as read
// @Tags Content
// @Param id path string true "Content ID"
// @Success 204
// @Router /student/content/{id}/complete [post]
func (h *ContentHandler) MarkComplete(c *gin.Context) {
	if err := h.service.MarkComplete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Progress godoc
// @Summary Return the student's completion map
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/progress [get]
func (h *ContentHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
