package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type assessmentService interface {
	Create(ctx context.Context, req models.CreateAssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Assessment, error)
	List(ctx context.Context, filter models.AssessmentFilter, actor *models.JWTClaims) ([]models.Assessment, int, error)
	Update(ctx context.Context, id string, req models.UpdateAssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error)
	SubmitForReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.Assessment, error)
	Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.Assessment, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	Submit(ctx context.Context, id string, req models.SubmitAssessmentRequest, actor *models.JWTClaims) (*models.SubmissionResult, error)
	LatestResult(ctx context.Context, id string, actor *models.JWTClaims) (*models.AssessmentSubmission, error)
}

// AssessmentHandler manages assessments, their review workflow and
// student submissions.
type AssessmentHandler struct {
	service assessmentService
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(service assessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// Create godoc
// @Summary Create an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /faculty/assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req models.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assessment payload"))
		return
	}
	assessment, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.AssessmentFilter{
		SubjectID: c.Query("subject_id"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
	}
	if v := c.Query("status"); v != "" {
		status := models.ApprovalStatus(v)
		filter.Status = &status
	}

	assessments, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, paginationFor(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Update godoc
// @Summary Update an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/assessments/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	var req models.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assessment payload"))
		return
	}
	assessment, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// SubmitForReview godoc
// @Summary Submit an assessment for review
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/assessments/{id}/submit [post]
func (h *AssessmentHandler) SubmitForReview(c *gin.Context) {
	assessment, err := h.service.SubmitForReview(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Review godoc
// @Summary Apply a review decision to an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/assessments/{id}/review [post]
func (h *AssessmentHandler) Review(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	assessment, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Delete godoc
// @Summary Delete an unpublished assessment
// @Tags Assessments
// @Param id path string true "Assessment ID"
// @Success 204
// @Router /faculty/assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit answers and receive a graded result
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /student/assessments/{id}/submit [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req models.SubmitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// LatestResult godoc
// @Summary Return the student's newest attempt
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /student/assessments/{id}/result [get]
func (h *AssessmentHandler) LatestResult(c *gin.Context) {
	result, err := h.service.LatestResult(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
