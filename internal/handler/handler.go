package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"content-eval/internal/service"
	"content-eval/internal/utils"
)

// respondServiceError maps service sentinel errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConfiguration), errors.Is(err, service.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicateEvaluation), errors.Is(err, service.ErrInvalidState):
		utils.Conflict(c, err.Error())
	default:
		logrus.WithError(err).Error("unhandled service error")
		utils.InternalError(c, "internal error")
	}
}

// parseIDParam reads a positive uint path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
