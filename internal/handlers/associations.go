package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/response"
)

// AssociationHandler manages the user-worklet association endpoints.
type AssociationHandler struct {
	associations *services.AssociationService
}

func NewAssociationHandler(associations *services.AssociationService) *AssociationHandler {
	return &AssociationHandler{associations: associations}
}

type createAssociationRequest struct {
	UserID             string `json:"user_id" validate:"required"`
	WorkletID          string `json:"worklet_id" validate:"required"`
	RoleInWorklet      string `json:"role_in_worklet" validate:"required"`
	ProgressPercentage *int   `json:"progress_percentage"`
	CompletionStatus   string `json:"completion_status"`
	Notes              string `json:"notes"`
}

// POST /associations
func (h *AssociationHandler) Create(c *gin.Context) {
	var req createAssociationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.AssociationInput{
		UserID:             req.UserID,
		WorkletID:          req.WorkletID,
		RoleInWorklet:      req.RoleInWorklet,
		ProgressPercentage: req.ProgressPercentage,
		CompletionStatus:   req.CompletionStatus,
		Notes:              req.Notes,
	}
	if actor := currentUserID(c); actor != "" {
		input.AssignedBy = &actor
	}

	association, err := h.associations.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusCreated, association)
}

// GET /associations/worklet/:worklet_id
func (h *AssociationHandler) WorkletMembers(c *gin.Context) {
	view, err := h.associations.WorkletWithMembers(requestContext(c),
		c.Param("worklet_id"), parseBoolQuery(c, "include_inactive", false))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GET /associations/user/:user_id/worklets
func (h *AssociationHandler) AccountWorklets(c *gin.Context) {
	worklets, err := h.associations.AccountWorklets(requestContext(c),
		c.Param("user_id"), c.Query("role"), c.Query("status"),
		parseBoolQuery(c, "include_inactive", false))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklets)
}

// GET /associations/mentor/:mentor_id/ongoing-worklets
func (h *AssociationHandler) MentorOngoingWorklets(c *gin.Context) {
	worklets, err := h.associations.MentorOngoingWorklets(requestContext(c), c.Param("mentor_id"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklets)
}

// PUT /associations/:id
func (h *AssociationHandler) Update(c *gin.Context) {
	var patch services.AssociationPatch
	if !bindAndValidate(c, &patch) {
		return
	}

	association, err := h.associations.Update(requestContext(c), c.Param("id"), patch)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, association)
}

// DELETE /associations/:id
// Soft delete: the association is deactivated, not removed.
func (h *AssociationHandler) Deactivate(c *gin.Context) {
	if err := h.associations.Deactivate(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

// DELETE /associations/:id/permanent
func (h *AssociationHandler) Delete(c *gin.Context) {
	if err := h.associations.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type bulkAssignRequest struct {
	WorkletID string                     `json:"worklet_id" validate:"required"`
	Entries   []services.BulkAssignEntry `json:"entries" validate:"required,min=1,dive"`
}

// POST /associations/bulk-assign
func (h *AssociationHandler) BulkAssign(c *gin.Context) {
	var req bulkAssignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var assignedBy *string
	if actor := currentUserID(c); actor != "" {
		assignedBy = &actor
	}

	result, err := h.associations.BulkAssign(requestContext(c), req.WorkletID, req.Entries, assignedBy)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, result)
}
