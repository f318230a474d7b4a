package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/service"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type verificationService interface {
	Queue(ctx context.Context, actor *models.JWTClaims) (*service.VerificationQueue, error)
}

// VerificationHandler serves the combined review queue.
type VerificationHandler struct {
	service verificationService
}

// NewVerificationHandler constructs the handler.
func NewVerificationHandler(service verificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// Queue godoc
// @Summary Return everything awaiting review for the caller
// @Tags Verification
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/verification [get]
func (h *VerificationHandler) Queue(c *gin.Context) {
	queue, err := h.service.Queue(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queue, nil)
}
