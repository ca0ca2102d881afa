package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/pkg/jwt"
)

const (
	RoleUser    = "user"
	RoleKBAdmin = "kb_admin"
	RoleITAdmin = "it_admin"
)

func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.TeamID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no active team"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("team_id", claims.TeamID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireKBAdmin gates mutating knowledge-base operations.
func RequireKBAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role != RoleKBAdmin && role != RoleITAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "kb_admin role required"})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func currentTeamID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("team_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
