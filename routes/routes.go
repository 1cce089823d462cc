package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/controllers"
	"github.com/ptnhung/ffgroups-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthJWT())
		{
			protected.GET("/me", controllers.Me)
		}

		groups := api.Group("/groups")
		groups.Use(middleware.AuthJWT())
		{
			groups.POST("", controllers.CreateGroup)
			groups.GET("/my", controllers.GetMyGroup)
			groups.GET("/:id", controllers.GetGroupDetail)
			groups.GET("/:id/participants", controllers.GetGroupParticipants)
			groups.DELETE("/:id/members/:memberId", controllers.RemoveMemberFromGroup)

			// owner-only invitation surface
			groups.POST("/:id/invitations", middleware.CheckGroupOwner(), controllers.InviteToGroup)
			groups.GET("/:id/invitations", middleware.CheckGroupOwner(), controllers.ListGroupInvitations)
			groups.DELETE("/:id/invitations/:inviteId", middleware.CheckGroupOwner(), controllers.RevokeInvitation)
		}

		// customer-portal surface: identity is the verified storefront
		// session's, so auth is optional here
		invitations := api.Group("/invitations")
		{
			invitations.GET("/:token", controllers.GetInvitation)
			invitations.POST("/accept", middleware.RateLimitJoin(), middleware.OptionalAuth(), controllers.AcceptInvitation)
		}

		join := api.Group("/join")
		{
			join.GET("/:code", controllers.PreviewInviteCode)
			join.POST("", middleware.RateLimitJoin(), middleware.OptionalAuth(), controllers.JoinByCode)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthJWT(), middleware.RequireAdmin())
		{
			admin.GET("/groups", controllers.AdminListGroups)
			admin.PUT("/groups/:id/status", controllers.AdminUpdateGroupStatus)
			admin.POST("/groups/:id/sync-members", controllers.AdminSyncMemberCount)
			admin.GET("/settings", controllers.AdminGetMerchantSettings)
			admin.PUT("/settings", controllers.AdminUpdateMerchantSettings)
			admin.PUT("/users/:id/flags", controllers.AdminUpdateUserFlags)
		}
	}
}
