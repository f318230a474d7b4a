package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cognify-api/internal/middleware"
	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/internal/service"
)

// Handlers bundles every route handler for registration.
type Handlers struct {
	WebAuth      *AuthHandler
	MobileAuth   *AuthHandler
	Users        *UserHandler
	Roles        *RoleHandler
	Whitelist    *WhitelistHandler
	Subjects     *SubjectHandler
	Content      *ContentHandler
	Assessments  *AssessmentHandler
	Questions    *QuestionHandler
	Revisions    *RevisionHandler
	Verification *VerificationHandler
	Activity     *ActivityHandler
	Settings     *SettingsHandler
	Dashboard    *DashboardHandler
	Analytics    *AnalyticsHandler
}

// RegisterRoutes mounts the three API surfaces under the given prefix.
// The web surface serves admins and faculty, the mobile surface serves
// students and sits behind the maintenance gate.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, settings *service.SettingsService) {
	api := r.Group(prefix)
	requireAuth := middleware.JWT(auth)

	web := api.Group("/web")
	{
		webAuth := web.Group("/auth")
		webAuth.POST("/login", h.WebAuth.Login)
		webAuth.POST("/register", h.WebAuth.Register)
		webAuth.POST("/refresh", h.WebAuth.Refresh)
		webAuth.POST("/logout", h.WebAuth.Logout)
		webAuth.GET("/me", requireAuth, h.WebAuth.Me)

		admin := web.Group("/admin", requireAuth, middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/dashboard", h.Dashboard.Admin)

			admin.POST("/users", h.Users.Create)
			admin.GET("/users", h.Users.List)
			admin.GET("/users/:id", h.Users.Get)
			admin.PUT("/users/:id", h.Users.Update)
			admin.POST("/users/:id/verify", h.Users.Verify)
			admin.DELETE("/users/:id", h.Users.Delete)

			admin.POST("/roles", h.Roles.Create)
			admin.GET("/roles", h.Roles.List)
			admin.GET("/roles/:id", h.Roles.Get)
			admin.PUT("/roles/:id", h.Roles.Update)
			admin.DELETE("/roles/:id", h.Roles.Delete)

			admin.POST("/whitelist", h.Whitelist.Create)
			admin.GET("/whitelist", h.Whitelist.List)
			admin.POST("/whitelist/import", h.Whitelist.Import)
			admin.GET("/whitelist/:id", h.Whitelist.Get)
			admin.PUT("/whitelist/:id", h.Whitelist.Update)
			admin.DELETE("/whitelist/:id", h.Whitelist.Delete)

			admin.POST("/subjects", h.Subjects.Create)
			admin.GET("/subjects", h.Subjects.List)
			admin.GET("/subjects/:id", h.Subjects.Get)
			admin.PUT("/subjects/:id", h.Subjects.Update)
			admin.DELETE("/subjects/:id", h.Subjects.Delete)
			admin.GET("/subject-changes", h.Subjects.ListChanges)
			admin.POST("/subject-changes/:id/resolve", h.Subjects.ResolveChange)

			admin.POST("/content", h.Content.Create)
			admin.GET("/content", h.Content.List)
			admin.GET("/content/:id", h.Content.Get)
			admin.PUT("/content/:id", h.Content.Update)
			admin.DELETE("/content/:id", h.Content.Delete)
			admin.POST("/content/:id/review", h.Content.Review)

			admin.POST("/assessments", h.Assessments.Create)
			admin.GET("/assessments", h.Assessments.List)
			admin.GET("/assessments/:id", h.Assessments.Get)
			admin.PUT("/assessments/:id", h.Assessments.Update)
			admin.DELETE("/assessments/:id", h.Assessments.Delete)
			admin.POST("/assessments/:id/review", h.Assessments.Review)

			admin.POST("/questions", h.Questions.Create)
			admin.GET("/questions", h.Questions.List)
			admin.GET("/questions/:id", h.Questions.Get)
			admin.PUT("/questions/:id", h.Questions.Update)
			admin.DELETE("/questions/:id", h.Questions.Delete)

			admin.POST("/revisions", h.Revisions.Create)
			admin.GET("/revisions", h.Revisions.List)
			admin.GET("/revisions/:id", h.Revisions.Get)
			admin.POST("/revisions/:id/resolve", h.Revisions.Resolve)

			admin.GET("/verification", h.Verification.Queue)

			admin.GET("/settings", h.Settings.Get)
			admin.PUT("/settings", h.Settings.Update)

			admin.GET("/activity", h.Activity.List)
			admin.GET("/activity/recent", h.Activity.Recent)

			admin.GET("/analytics/roster", h.Analytics.Roster)
			admin.GET("/analytics/roster/export", h.Analytics.ExportRoster)
			admin.GET("/analytics/students/:id", h.Analytics.StudentRecord)
		}

		faculty := web.Group("/faculty", requireAuth, middleware.RequireRoles(models.RoleFaculty))
		{
			faculty.GET("/dashboard", h.Dashboard.Faculty)

			faculty.POST("/content", h.Content.Create)
			faculty.GET("/content", h.Content.List)
			faculty.GET("/content/:id", h.Content.Get)
			faculty.PUT("/content/:id", h.Content.Update)
			faculty.DELETE("/content/:id", h.Content.Delete)
			faculty.POST("/content/:id/submit", h.Content.Submit)
			faculty.POST("/content/:id/request-removal", h.Content.RequestRemoval)

			faculty.POST("/assessments", h.Assessments.Create)
			faculty.GET("/assessments", h.Assessments.List)
			faculty.GET("/assessments/:id", h.Assessments.Get)
			faculty.PUT("/assessments/:id", h.Assessments.Update)
			faculty.DELETE("/assessments/:id", h.Assessments.Delete)
			faculty.POST("/assessments/:id/submit", h.Assessments.SubmitForReview)

			faculty.POST("/questions", h.Questions.Create)
			faculty.GET("/questions", h.Questions.List)
			faculty.GET("/questions/:id", h.Questions.Get)
			faculty.PUT("/questions/:id", h.Questions.Update)

			faculty.POST("/whitelist", h.Whitelist.Create)
			faculty.GET("/whitelist", h.Whitelist.List)
			faculty.POST("/whitelist/import", h.Whitelist.Import)
			faculty.GET("/whitelist/:id", h.Whitelist.Get)
			faculty.PUT("/whitelist/:id", h.Whitelist.Update)
			faculty.DELETE("/whitelist/:id", h.Whitelist.Delete)

			faculty.GET("/subjects", h.Subjects.List)
			faculty.GET("/subjects/:id", h.Subjects.Get)
			faculty.POST("/subjects/:id/changes", h.Subjects.ProposeChange)
			faculty.GET("/subject-changes", h.Subjects.ListChanges)

			faculty.POST("/revisions", h.Revisions.Create)
			faculty.GET("/revisions", h.Revisions.List)
			faculty.GET("/revisions/:id", h.Revisions.Get)
			faculty.POST("/revisions/:id/resolve", h.Revisions.Resolve)

			faculty.GET("/verification", h.Verification.Queue)

			faculty.GET("/analytics/roster", h.Analytics.Roster)
			faculty.GET("/analytics/students/:id", h.Analytics.StudentRecord)
		}
	}

	mobile := api.Group("/mobile")
	{
		mobileAuth := mobile.Group("/auth")
		mobileAuth.POST("/login", h.MobileAuth.Login)
		mobileAuth.POST("/register", h.MobileAuth.Register)
		mobileAuth.POST("/refresh", h.MobileAuth.Refresh)
		mobileAuth.POST("/logout", h.MobileAuth.Logout)
		mobileAuth.GET("/me", requireAuth, h.MobileAuth.Me)

		student := mobile.Group("/student", requireAuth, middleware.Maintenance(settings), middleware.RequireRoles(models.RoleStudent))
		{
			student.GET("/dashboard", h.Dashboard.Student)

			student.GET("/subjects", h.Subjects.List)
			student.GET("/subjects/:id", h.Subjects.Get)

			student.GET("/content", h.Content.List)
			student.GET("/content/:id", h.Content.Get)
			student.POST("/content/:id/complete", h.Content.MarkComplete)
			student.GET("/progress", h.Content.Progress)

			student.GET("/assessments", h.Assessments.List)
			student.GET("/assessments/:id", h.Assessments.Get)
			student.POST("/assessments/:id/submit", h.Assessments.Submit)
			student.GET("/assessments/:id/result", h.Assessments.LatestResult)

			student.GET("/readiness", h.Analytics.Readiness)
		}
	}
}
