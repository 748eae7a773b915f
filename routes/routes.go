package routes

import (
	"referral-tracking-api/controllers"
	"referral-tracking-api/middleware"
	"referral-tracking-api/models"
	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
)

// Services are the dependencies the HTTP layer is built from.
type Services struct {
	Workflow *services.ReferralWorkflow
	Users    *services.UserService
	Admin    *services.AdminService
}

func SetupRoutes(router *gin.Engine, svc Services) {
	authCtl := controllers.NewAuthController(svc.Users)
	referralCtl := controllers.NewReferralController(svc.Workflow)
	reviewCtl := controllers.NewReviewController(svc.Workflow)
	hrCtl := controllers.NewHREvaluationController(svc.Workflow)
	adminCtl := controllers.NewAdminController(svc.Admin)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/register", authCtl.Register)
			public.POST("/bulk-register", authCtl.BulkRegister)
			public.POST("/login", authCtl.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Referral Tracking API is running",
				})
			})
		}

		// A bearer token is optional here; when present it decides the caller's emp_id.
		open := v1.Group("")
		open.Use(middleware.OptionalAuth())
		{
			open.GET("/users", authCtl.GetUser)

			referrals := open.Group("/referrals")
			{
				referrals.POST("", referralCtl.Submit)
				referrals.GET("/my", referralCtl.Mine)
				referrals.PUT("/:id", referralCtl.Update)
				referrals.DELETE("/:id", referralCtl.Delete)
			}

			reviews := open.Group("/reviews")
			{
				reviews.GET("", reviewCtl.List)
				reviews.POST("/:id/submit", reviewCtl.Submit)
				reviews.PUT("/:id/update", reviewCtl.Update)
			}

			evaluations := open.Group("/hr-evaluations")
			{
				evaluations.GET("", hrCtl.List)
				evaluations.POST("", hrCtl.Submit)
				evaluations.PUT("", hrCtl.Update)
			}
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", authCtl.Me)
			// Profile edits can change the password, so the token alone names the user.
			protected.PUT("/users/profile", authCtl.UpdateProfile)

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleHR))
			{
				admin.GET("/departments", adminCtl.ListDepartments)
				admin.POST("/departments", adminCtl.CreateDepartment)
				admin.PUT("/departments/:id", adminCtl.UpdateDepartment)

				admin.GET("/sbus", adminCtl.ListSBUs)
				admin.POST("/sbus", adminCtl.CreateSBU)
				admin.PUT("/sbus/:email", adminCtl.UpdateSBU)
				admin.DELETE("/sbus/:email", adminCtl.RemoveSBU)

				admin.GET("/email-templates", adminCtl.ListEmailTemplates)
				admin.GET("/email-templates/:purpose", adminCtl.GetEmailTemplate)
				admin.PUT("/email-templates/:purpose", adminCtl.UpdateEmailTemplate)
			}
		}
	}
}
