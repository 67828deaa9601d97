package handler

import (
	"github.com/gin-gonic/gin"

	"content-eval/internal/dto"
	"content-eval/internal/service"
	"content-eval/internal/utils"
)

// EvaluationHandler blind evaluation endpoints.
type EvaluationHandler struct {
	blindService *service.BlindService
	evalService  *service.EvaluationService
}

func NewEvaluationHandler(blindService *service.BlindService, evalService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{blindService: blindService, evalService: evalService}
}

// Next GET /api/experiments/:id/evaluate/next
func (h *EvaluationHandler) Next(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.blindService.Next(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// Skip POST /api/experiments/:id/evaluate/skip/:blind_id
func (h *EvaluationHandler) Skip(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	blindID := c.Param("blind_id")
	if blindID == "" {
		utils.BadRequest(c, "missing blind_id")
		return
	}

	if err := h.blindService.Skip(id, blindID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "deferred", nil)
}

// Submit POST /api/experiments/:id/evaluate/submit
func (h *EvaluationHandler) Submit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	eval, err := h.evalService.Submit(id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "evaluation recorded", eval)
}

// Progress GET /api/experiments/:id/evaluate/progress
func (h *EvaluationHandler) Progress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	progress, err := h.blindService.Progress(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, progress)
}
