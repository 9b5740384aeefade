package api

import (
	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/handlers"
)

func registerDashboardRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, handler *handlers.DashboardHandler) {
	dashboard := engine.Group("/api/dashboard")
	dashboard.Use(requireAuth)
	{
		dashboard.GET("/statistics", handler.Statistics)
		dashboard.GET("/mentor-statistics", handler.MentorStatistics)
		// Access control lives in the handler: mentors may only read their own stats.
		dashboard.GET("/mentor/:mentor_id/detailed-stats", handler.MentorDetailedStats)
	}
}
