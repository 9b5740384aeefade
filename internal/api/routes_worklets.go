package api

import (
	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/handlers"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/middleware"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

func registerWorkletRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, handler *handlers.WorkletHandler) {
	manage := middleware.RequireRoles(models.RoleMentor, models.RoleProfessor, models.RoleAdmin)

	worklets := engine.Group("/worklets")
	worklets.Use(requireAuth)
	{
		worklets.GET("", handler.List)
		worklets.GET("/completed", handler.Completed)
		worklets.GET("/mentor/:email", handler.MentorWorklets)
		worklets.GET("/:identifier", handler.Get)
		worklets.GET("/:identifier/students", handler.Students)

		worklets.POST("", manage, handler.Create)
		worklets.PUT("/:identifier", manage, handler.Update)
		worklets.DELETE("/:identifier", manage, handler.Delete)

		worklets.POST("/:identifier/request-update", manage, handler.RequestUpdate)
		worklets.POST("/:identifier/submit-feedback", manage, handler.SubmitFeedback)
		worklets.POST("/:identifier/submit-suggestion", manage, handler.SubmitSuggestion)
		worklets.POST("/:identifier/internship-referral", manage, handler.InternshipReferral)
	}
}
