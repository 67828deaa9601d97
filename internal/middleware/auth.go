package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"content-eval/internal/utils"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
)

// JWTAuth validates the Bearer token and stores the identity in the
// request context.
func JWTAuth(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			utils.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextUsername, claims.Username)
		c.Next()
	}
}

// GetUserID reads the authenticated user id from the context.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(contextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetUsername reads the authenticated username from the context.
func GetUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextUsername)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
