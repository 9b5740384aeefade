package api

import (
	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/handlers"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/middleware"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

func registerAssociationRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, handler *handlers.AssociationHandler) {
	manage := middleware.RequireRoles(models.RoleMentor, models.RoleProfessor, models.RoleAdmin)

	associations := engine.Group("/associations")
	associations.Use(requireAuth)
	{
		associations.GET("/worklet/:worklet_id", handler.WorkletMembers)
		associations.GET("/user/:user_id/worklets", handler.AccountWorklets)
		associations.GET("/mentor/:mentor_id/ongoing-worklets", handler.MentorOngoingWorklets)

		associations.POST("", manage, handler.Create)
		associations.POST("/bulk-assign", manage, handler.BulkAssign)
		associations.PUT("/:id", manage, handler.Update)
		associations.DELETE("/:id", manage, handler.Deactivate)
		associations.DELETE("/:id/permanent", manage, handler.Delete)
	}
}
