package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lodging/internal/pkg/response"
)

const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleFrontDesk = "front_desk"
	RoleHousekeep = "housekeeping"
)

// RequireRole lets the request through when the token carries one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role.(string) == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

// FinanceOnly guards money movements and reports.
func FinanceOnly() gin.HandlerFunc {
	return RequireRole(RoleAdmin, RoleManager)
}
