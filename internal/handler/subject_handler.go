package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type subjectService interface {
	Create(ctx context.Context, req models.CreateSubjectRequest, actor *models.JWTClaims) (*models.Subject, error)
	Get(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter, actor *models.JWTClaims) ([]models.Subject, int, error)
	Update(ctx context.Context, id string, req models.CreateSubjectRequest, actor *models.JWTClaims) (*models.Subject, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	ProposeChange(ctx context.Context, subjectID string, req models.ProposeSubjectChangeRequest, actor *models.JWTClaims) (*models.PendingSubjectChange, error)
	ListChanges(ctx context.Context, status *models.ApprovalStatus, subjectID string, actor *models.JWTClaims) ([]models.PendingSubjectChange, error)
	ResolveChange(ctx context.Context, changeID string, req models.ResolveSubjectChangeRequest, actor *models.JWTClaims) (*models.PendingSubjectChange, error)
}

// SubjectHandler manages subjects, their topic trees and the pending
// change queue.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(service subjectService) *SubjectHandler {
	return &SubjectHandler{service: service}
}

// Create godoc
// @Summary Create a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subject payload"))
		return
	}
	subject, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.SubjectFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("status"); v != "" {
		status := models.ApprovalStatus(v)
		filter.Status = &status
	}

	subjects, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, paginationFor(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one subject with its topic tree
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /admin/subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Update godoc
// @Summary Update a subject directly
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /admin/subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subject payload"))
		return
	}
	subject, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete a subject
// @Tags Subjects
// @Param id path string true "Subject ID"
// @Success 204
// @Router /admin/subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ProposeChange godoc
// @Summary Submit a subject change for review
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Success 201 {object} response.Envelope
// @Router /faculty/subjects/{id}/changes [post]
func (h *SubjectHandler) ProposeChange(c *gin.Context) {
	var req models.ProposeSubjectChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid change payload"))
		return
	}
	change, err := h.service.ProposeChange(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, change)
}

// ListChanges godoc
// @Summary List pending subject changes
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/subject-changes [get]
func (h *SubjectHandler) ListChanges(c *gin.Context) {
	var status *models.ApprovalStatus
	if v := c.Query("status"); v != "" {
		s := models.ApprovalStatus(v)
		status = &s
	}
	changes, err := h.service.ListChanges(c.Request.Context(), status, c.Query("subject_id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, changes, nil)
}

// ResolveChange godoc
// @Summary Approve or reject a subject change
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Change ID"
// @Success 200 {object} response.Envelope
// @Router /admin/subject-changes/{id}/resolve [post]
func (h *SubjectHandler) ResolveChange(c *gin.Context) {
	var req models.ResolveSubjectChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolution payload"))
		return
	}
	change, err := h.service.ResolveChange(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, change, nil)
}
