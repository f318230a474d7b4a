package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredRoutes(t *testing.T) map[string]bool {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, "/api", Handlers{}, nil, nil)

	routes := make(map[string]bool)
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	return routes
}

func TestRouterMountsFacultyAnalytics(t *testing.T) {
	routes := registeredRoutes(t)

	assert.True(t, routes["GET /api/web/faculty/analytics/roster"])
	assert.True(t, routes["GET /api/web/faculty/analytics/students/:id"])
	// Export stays admin-only.
	assert.False(t, routes["GET /api/web/faculty/analytics/roster/export"])
	assert.True(t, routes["GET /api/web/admin/analytics/roster/export"])
}

func TestRouterMountsMobileLogout(t *testing.T) {
	routes := registeredRoutes(t)

	require.True(t, routes["POST /api/mobile/auth/logout"])
	require.True(t, routes["POST /api/web/auth/logout"])
}

func TestRouterMountsQuestionBank(t *testing.T) {
	routes := registeredRoutes(t)

	for _, key := range []string{
		"POST /api/web/admin/questions",
		"GET /api/web/admin/questions",
		"GET /api/web/admin/questions/:id",
		"PUT /api/web/admin/questions/:id",
		"DELETE /api/web/admin/questions/:id",
		"POST /api/web/faculty/questions",
		"GET /api/web/faculty/questions",
		"GET /api/web/faculty/questions/:id",
		"PUT /api/web/faculty/questions/:id",
	} {
		assert.True(t, routes[key], key)
	}
	// Faculty cannot delete bank questions.
	assert.False(t, routes["DELETE /api/web/faculty/questions/:id"])
}
