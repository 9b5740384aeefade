package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/response"
)

// EvaluationHandler manages the evaluation endpoints.
type EvaluationHandler struct {
	evaluations *services.EvaluationService
}

func NewEvaluationHandler(evaluations *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

type createEvaluationRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	WorkletID string `json:"worklet_id" validate:"required"`
	Score     int    `json:"score" validate:"min=0,max=100"`
	Feedback  string `json:"feedback"`
}

// POST /evaluations
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req createEvaluationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	evaluation, err := h.evaluations.Create(requestContext(c), services.EvaluationInput{
		UserID:      req.UserID,
		WorkletID:   req.WorkletID,
		EvaluatorID: currentUserID(c),
		Score:       req.Score,
		Feedback:    req.Feedback,
	})
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusCreated, evaluation)
}

// GET /evaluations
func (h *EvaluationHandler) List(c *gin.Context) {
	evaluations, err := h.evaluations.List(requestContext(c), c.Query("user_id"), c.Query("worklet_id"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, evaluations)
}

// GET /evaluations/:id
func (h *EvaluationHandler) Get(c *gin.Context) {
	evaluation, err := h.evaluations.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, evaluation)
}

// PUT /evaluations/:id
func (h *EvaluationHandler) Update(c *gin.Context) {
	var patch services.EvaluationPatch
	if !bindAndValidate(c, &patch) {
		return
	}

	evaluation, err := h.evaluations.Update(requestContext(c), c.Param("id"), patch)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, evaluation)
}

// DELETE /evaluations/:id
func (h *EvaluationHandler) Delete(c *gin.Context) {
	if err := h.evaluations.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
