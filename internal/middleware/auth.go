package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lodging/internal/domain"
	"lodging/internal/pkg/jwt"
	"lodging/internal/pkg/response"
)

const (
	ctxTenantID = "tenant_id"
	ctxUserID   = "user_id"
	ctxRole     = "role"
)

// JWTAuth accepts tokens issued by the external auth layer and puts the
// tenant and actor into the request context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxTenantID, claims.TenantID)
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// Actor returns the authenticated caller. Public routes get a tenant-less actor.
func Actor(c *gin.Context) domain.Actor {
	actor := domain.Actor{TenantID: c.GetInt64(ctxTenantID)}
	if id := c.GetInt64(ctxUserID); id != 0 {
		actor.UserID = &id
	}
	return actor
}
