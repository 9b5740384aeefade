package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/response"
)

// WorkletHandler manages the worklet catalogue endpoints.
type WorkletHandler struct {
	worklets     *services.WorkletService
	associations *services.AssociationService
}

func NewWorkletHandler(worklets *services.WorkletService, associations *services.AssociationService) *WorkletHandler {
	return &WorkletHandler{worklets: worklets, associations: associations}
}

type createWorkletRequest struct {
	CertID      string `json:"cert_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	Year        int    `json:"year"`
}

// POST /worklets
func (h *WorkletHandler) Create(c *gin.Context) {
	var req createWorkletRequest
	if !bindAndValidate(c, &req) {
		return
	}

	worklet, err := h.worklets.Create(requestContext(c), services.WorkletInput{
		CertID:      req.CertID,
		Title:       req.Title,
		Description: req.Description,
		Domain:      req.Domain,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		Year:        req.Year,
	})
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusCreated, worklet)
}

// GET /worklets
func (h *WorkletHandler) List(c *gin.Context) {
	worklets, err := h.worklets.List(requestContext(c), c.Query("status"), parseIntQuery(c, "year", 0))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklets)
}

// GET /worklets/:identifier
// The identifier may be the worklet UUID or its certificate id.
func (h *WorkletHandler) Get(c *gin.Context) {
	worklet, err := h.worklets.Get(requestContext(c), c.Param("identifier"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklet)
}

// GET /worklets/:identifier/students
func (h *WorkletHandler) Students(c *gin.Context) {
	worklet, err := h.worklets.Get(requestContext(c), c.Param("identifier"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	view, err := h.associations.WorkletWithMembers(requestContext(c), worklet.ID, parseBoolQuery(c, "include_inactive", false))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"worklet":  view.Worklet,
		"students": view.Students,
		"count":    len(view.Students),
	})
}

// GET /worklets/completed
func (h *WorkletHandler) Completed(c *gin.Context) {
	worklets, err := h.worklets.ListCompleted(requestContext(c), c.Query("email"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklets)
}

// GET /worklets/mentor/:email
func (h *WorkletHandler) MentorWorklets(c *gin.Context) {
	worklets, err := h.worklets.ListForMentor(requestContext(c), c.Param("email"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklets)
}

// PUT /worklets/:identifier
func (h *WorkletHandler) Update(c *gin.Context) {
	var patch services.WorkletPatch
	if !bindAndValidate(c, &patch) {
		return
	}

	worklet, err := h.worklets.Update(requestContext(c), c.Param("identifier"), patch)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, worklet)
}

// DELETE /worklets/:identifier
func (h *WorkletHandler) Delete(c *gin.Context) {
	if err := h.worklets.Delete(requestContext(c), c.Param("identifier")); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type activityRequest struct {
	Message string `json:"message"`
}

// POST /worklets/:identifier/request-update
func (h *WorkletHandler) RequestUpdate(c *gin.Context) {
	h.notify(c, services.ActivityRequestUpdate)
}

// POST /worklets/:identifier/submit-feedback
func (h *WorkletHandler) SubmitFeedback(c *gin.Context) {
	h.notify(c, services.ActivityFeedback)
}

// POST /worklets/:identifier/submit-suggestion
func (h *WorkletHandler) SubmitSuggestion(c *gin.Context) {
	h.notify(c, services.ActivitySuggestion)
}

// POST /worklets/:identifier/internship-referral
func (h *WorkletHandler) InternshipReferral(c *gin.Context) {
	h.notify(c, services.ActivityInternshipReferral)
}

func (h *WorkletHandler) notify(c *gin.Context, kind string) {
	var req activityRequest
	if !bindAndValidate(c, &req) {
		return
	}

	notice, err := h.worklets.NotifyStudents(requestContext(c), c.Param("identifier"), kind, req.Message)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, notice)
}
