package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"content-eval/internal/dto"
	"content-eval/internal/middleware"
	"content-eval/internal/service"
	"content-eval/internal/utils"
)

// AuthHandler login endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			utils.Unauthorized(c, err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, resp)
}

// GetMe GET /api/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "not authenticated")
		return
	}

	info, err := h.authService.GetMe(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, info)
}
