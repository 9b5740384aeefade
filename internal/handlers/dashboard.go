package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/errors"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/response"
)

// DashboardHandler serves the read-only aggregate endpoints.
type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/dashboard/statistics
func (h *DashboardHandler) Statistics(c *gin.Context) {
	stats, err := h.dashboard.PlatformStatistics(requestContext(c))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GET /api/dashboard/mentor-statistics
func (h *DashboardHandler) MentorStatistics(c *gin.Context) {
	stats, err := h.dashboard.MentorStatistics(requestContext(c))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GET /api/dashboard/mentor/:mentor_id/detailed-stats
// Mentors may only view their own stats; Professors and Admins may view any.
func (h *DashboardHandler) MentorDetailedStats(c *gin.Context) {
	mentorID := c.Param("mentor_id")

	role := currentUserRole(c)
	if role != models.RoleProfessor && role != models.RoleAdmin && currentUserID(c) != mentorID {
		response.Error(c, errors.ErrForbidden)
		return
	}

	stats, err := h.dashboard.MentorDetailedStats(requestContext(c), mentorID)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, stats)
}
