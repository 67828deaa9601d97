package handler

import (
	"github.com/gin-gonic/gin"

	"content-eval/internal/dto"
	"content-eval/internal/service"
	"content-eval/internal/utils"
)

// ExperimentHandler experiment setup endpoints.
type ExperimentHandler struct {
	expService *service.ExperimentService
}

func NewExperimentHandler(expService *service.ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{expService: expService}
}

// Create POST /api/experiments
func (h *ExperimentHandler) Create(c *gin.Context) {
	var req dto.CreateExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	exp, err := h.expService.Create(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "experiment created", exp)
}

// Get GET /api/experiments/:id
func (h *ExperimentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exp, err := h.expService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, exp)
}

// List GET /api/experiments
func (h *ExperimentHandler) List(c *gin.Context) {
	exps, err := h.expService.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, exps)
}

// Tasks GET /api/tasks
func (h *ExperimentHandler) Tasks(c *gin.Context) {
	tasks, err := h.expService.Tasks()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, tasks)
}
