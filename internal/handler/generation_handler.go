package handler

import (
	"github.com/gin-gonic/gin"

	"content-eval/internal/dto"
	"content-eval/internal/service"
	"content-eval/internal/utils"
)

// GenerationHandler generation run endpoints.
type GenerationHandler struct {
	orchestrator *service.Orchestrator
}

func NewGenerationHandler(orchestrator *service.Orchestrator) *GenerationHandler {
	return &GenerationHandler{orchestrator: orchestrator}
}

// Start POST /api/experiments/:id/generate
func (h *GenerationHandler) Start(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orchestrator.Start(id); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "generation started", nil)
}

// Single POST /api/experiments/:id/generate/single
func (h *GenerationHandler) Single(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SingleRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	gen, err := h.orchestrator.Single(id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gen)
}

// Progress GET /api/experiments/:id/generate/progress
func (h *GenerationHandler) Progress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	progress, err := h.orchestrator.Progress(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, progress)
}

// Cancel POST /api/experiments/:id/generate/cancel
func (h *GenerationHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if h.orchestrator.Cancel(id) {
		utils.SuccessWithMessage(c, "generation cancelled", nil)
		return
	}

	utils.SuccessWithMessage(c, "no generation running", nil)
}
