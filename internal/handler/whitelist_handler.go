package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

const maxImportSize = 5 << 20

type whitelistService interface {
	Create(ctx context.Context, req models.CreateWhitelistRequest, actor *models.JWTClaims) (*models.WhitelistEntry, error)
	Get(ctx context.Context, id string) (*models.WhitelistEntry, error)
	List(ctx context.Context, filter models.WhitelistFilter, actor *models.JWTClaims) ([]models.WhitelistEntry, int, error)
	Update(ctx context.Context, id string, req models.UpdateWhitelistRequest, actor *models.JWTClaims) (*models.WhitelistEntry, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	ImportJSON(ctx context.Context, r io.Reader, actor *models.JWTClaims) (*models.BulkImportResult, error)
	ImportCSV(ctx context.Context, r io.Reader, actor *models.JWTClaims) (*models.BulkImportResult, error)
}

// WhitelistHandler manages pre-approved registrants.
type WhitelistHandler struct {
	service whitelistService
}

// NewWhitelistHandler constructs the handler.
func NewWhitelistHandler(service whitelistService) *WhitelistHandler {
	return &WhitelistHandler{service: service}
}

// Create godoc
// @Summary Add a whitelist entry
// @Tags Whitelist
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/whitelist [post]
func (h *WhitelistHandler) Create(c *gin.Context) {
	var req models.CreateWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid whitelist payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List godoc
// @Summary List whitelist entries
// @Tags Whitelist
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/whitelist [get]
func (h *WhitelistHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.WhitelistFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("role"); v != "" {
		role := models.UserRole(v)
		filter.Role = &role
	}
	if v := c.Query("status"); v != "" {
		status := models.WhitelistStatus(v)
		filter.Status = &status
	}

	entries, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, paginationFor(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one whitelist entry
// @Tags Whitelist
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /admin/whitelist/{id} [get]
func (h *WhitelistHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Update godoc
// @Summary Update a pending whitelist entry
// @Tags Whitelist
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /admin/whitelist/{id} [put]
func (h *WhitelistHandler) Update(c *gin.Context) {
	var req models.UpdateWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid whitelist payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Remove a pending whitelist entry
// @Tags Whitelist
// @Param id path string true "Entry ID"
// @Success 204
// @Router /admin/whitelist/{id} [delete]
func (h *WhitelistHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import whitelist entries
// @Description Accepts a multipart "file" upload (.csv or .json) or a raw JSON array body.
// @Tags Whitelist
// @Accept mpfd
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/whitelist/import [post]
func (h *WhitelistHandler) Import(c *gin.Context) {
	claims := claimsFromContext(c)
	ctx := c.Request.Context()

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing import file"))
			return
		}
		if fileHeader.Size > maxImportSize {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Internal(err, "failed to open import file"))
			return
		}
		defer file.Close()

		var result *models.BulkImportResult
		if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".json") {
			result, err = h.service.ImportJSON(ctx, file, claims)
		} else {
			result, err = h.service.ImportCSV(ctx, file, claims)
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	result, err := h.service.ImportJSON(ctx, body, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
