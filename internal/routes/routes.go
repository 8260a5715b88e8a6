package routes

import (
	"github.com/gin-gonic/gin"

	"expertgate/internal/authz"
	"expertgate/internal/handlers"
	"expertgate/internal/middleware"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	PasswordReset *handlers.PasswordResetHandler
	Notification  *handlers.NotificationHandler
	Profile       *handlers.ProfileHandler
	Content       *handlers.ContentHandler
	Health        *handlers.HealthHandler
}

func SetupRoutes(r *gin.Engine, h Handlers, jwtSecret []byte) *gin.Engine {
	r.GET("/healthz", h.Health.Check)

	api := r.Group("/api")

	// ---- public
	api.POST("/auth/login", h.Auth.Login)

	reset := api.Group("/password-reset")
	{
		reset.POST("/request", h.PasswordReset.Request)
		reset.POST("/verify", h.PasswordReset.Verify)
	}

	api.POST("/notifications/expert-signup", h.Notification.ExpertSignup)
	api.POST("/support-tickets", h.Notification.SupportTicket)

	content := api.Group("/content")
	{
		content.GET("", h.Content.List)
		content.GET("/:key", h.Content.Get)
	}

	// ---- protected
	protected := api.Group("", middleware.AuthMiddleware(jwtSecret))
	{
		protected.GET("/profile/view", h.Profile.View)
		protected.POST("/notifications/expert-verified",
			middleware.RequireRoles(authz.RoleAdmin),
			h.Notification.ExpertVerified,
		)
	}

	return r
}
