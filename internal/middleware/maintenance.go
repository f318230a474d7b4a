package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
	"github.com/noah-isme/cognify-api/pkg/response"
)

// MaintenanceChecker answers whether maintenance mode is active. The
// settings service implements it with a cached, fail-open lookup.
type MaintenanceChecker interface {
	MaintenanceOn(ctx context.Context) bool
}

// Maintenance blocks the student surface while maintenance mode is on.
// Admins pass through so they can turn it back off. Auth routes stay
// open elsewhere so the check runs after JWT extraction.
func Maintenance(checker MaintenanceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil || !checker.MaintenanceOn(c.Request.Context()) {
			c.Next()
			return
		}
		if claims := CurrentUser(c); claims != nil && claims.Role == models.RoleAdmin {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrMaintenance)
		c.Abort()
	}
}
