package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"content-eval/internal/dto"
	"content-eval/internal/service"
	"content-eval/internal/utils"
)

// AnalysisHandler aggregate reporting endpoints.
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Summary GET /api/experiments/:id/analysis/summary
func (h *AnalysisHandler) Summary(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.analysisService.Summary(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, summary)
}

// ByModel GET /api/experiments/:id/analysis/by-model
func (h *AnalysisHandler) ByModel(c *gin.Context) {
	h.grouped(c, h.analysisService.ByModel)
}

// ByStrategy GET /api/experiments/:id/analysis/by-strategy
func (h *AnalysisHandler) ByStrategy(c *gin.Context) {
	h.grouped(c, h.analysisService.ByStrategy)
}

// ByTask GET /api/experiments/:id/analysis/by-task
func (h *AnalysisHandler) ByTask(c *gin.Context) {
	h.grouped(c, h.analysisService.ByTask)
}

func (h *AnalysisHandler) grouped(c *gin.Context, fn func(uint) ([]dto.GroupStat, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := fn(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// Export GET /api/experiments/:id/analysis/export
func (h *AnalysisHandler) Export(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	header, rows, err := h.analysisService.ExportRows(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="experiment_%d.csv"`, id))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(header); err != nil {
		return
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return
		}
	}
	w.Flush()
}
