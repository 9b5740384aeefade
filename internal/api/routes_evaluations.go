package api

import (
	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/handlers"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/middleware"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

func registerEvaluationRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, handler *handlers.EvaluationHandler) {
	manage := middleware.RequireRoles(models.RoleMentor, models.RoleProfessor, models.RoleAdmin)

	evaluations := engine.Group("/evaluations")
	evaluations.Use(requireAuth)
	{
		evaluations.GET("", handler.List)
		evaluations.GET("/:id", handler.Get)

		evaluations.POST("", manage, handler.Create)
		evaluations.PUT("/:id", manage, handler.Update)
		evaluations.DELETE("/:id", manage, handler.Delete)
	}
}
