package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lodging/internal/pkg/response"
)

const headerRequestID = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(headerRequestID, id)
		c.Next()
	}
}

// ErrorLogger logs every request, the errors attached to it, and recovers from panics.
func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("panic",
					append(requestFields(c, start),
						zap.String("error", fmt.Sprintf("%v", recovered)),
						zap.ByteString("stack", debug.Stack()))...)
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				c.Abort()
				return
			}

			fields := requestFields(c, start)
			if len(c.Errors) > 0 {
				for _, err := range c.Errors {
					log.Error("request error", append(fields, zap.Error(err.Err))...)
				}
				return
			}
			if c.Writer.Status() >= http.StatusInternalServerError {
				log.Error("request failed", fields...)
				return
			}
			log.Info("request", fields...)
		}()

		c.Next()
	}
}

func requestFields(c *gin.Context, start time.Time) []zap.Field {
	return []zap.Field{
		zap.String("request_id", c.GetString("request_id")),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("query", c.Request.URL.RawQuery),
		zap.Int("status", c.Writer.Status()),
		zap.String("client_ip", c.ClientIP()),
		zap.Int64("tenant_id", c.GetInt64(ctxTenantID)),
		zap.Int64("user_id", c.GetInt64(ctxUserID)),
		zap.String("role", c.GetString(ctxRole)),
		zap.Duration("latency", time.Since(start)),
	}
}
