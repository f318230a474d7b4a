package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/middleware"
	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest, surface models.Surface) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest, surface models.Surface) (*models.User, error)
	Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler exposes the login and registration endpoints for one
// surface. The web surface additionally receives session cookies.
type AuthHandler struct {
	service authService
	surface models.Surface
}

// NewAuthHandler constructs the handler for a surface.
func NewAuthHandler(service authService, surface models.Surface) *AuthHandler {
	return &AuthHandler{service: service, surface: surface}
}

// Login godoc
// @Summary Authenticate a user
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := h.service.Login(c.Request.Context(), req, h.surface)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.surface == models.SurfaceWeb {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.AccessTokenCookie, result.AccessToken, int(result.ExpiresIn), "/", "", false, true)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register godoc
// @Summary Register a whitelisted account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	req.IP = c.ClientIP()

	user, err := h.service.Register(c.Request.Context(), req, h.surface)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Refresh godoc
// @Summary Exchange a refresh token for new tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid refresh payload"))
		return
	}
	result, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.surface == models.SurfaceWeb {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.AccessTokenCookie, result.AccessToken, int(result.ExpiresIn), "/", "", false, true)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Logout godoc
// @Summary Clear the web session cookie
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.surface == models.SurfaceWeb {
		c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Return the authenticated profile
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
