package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type questionService interface {
	Create(ctx context.Context, req models.CreateBankQuestionRequest, actor *models.JWTClaims) (*models.BankQuestion, error)
	Get(ctx context.Context, id string) (*models.BankQuestion, error)
	List(ctx context.Context, filter models.BankQuestionFilter, actor *models.JWTClaims) ([]models.BankQuestion, int, error)
	Update(ctx context.Context, id string, req models.UpdateBankQuestionRequest, actor *models.JWTClaims) (*models.BankQuestion, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// QuestionHandler exposes the standalone question bank.
type QuestionHandler struct {
	service questionService
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(service questionService) *QuestionHandler {
	return &QuestionHandler{service: service}
}

// Create godoc
// @Summary Create a bank question
// @Tags Questions
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var req models.CreateBankQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid question payload"))
		return
	}
	question, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// List godoc
// @Summary List bank questions
// @Tags Questions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.BankQuestionFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	questions, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, paginationFor(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one bank question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /admin/questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Update godoc
// @Summary Update a bank question
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /admin/questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	var req models.UpdateBankQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid question payload"))
		return
	}
	question, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete godoc
// @Summary Delete a bank question
// @Tags Questions
// @Param id path string true "Question ID"
// @Success 204
// @Router /admin/questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
