package middleware

import (
	"net/http"
	"runtime/debug"

	"erp-admin/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery converts a panic into a logged InternalError response.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", GetRequestID(c)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
					Error:   apperror.KindInternal.String(),
					Message: internalErrorMessage,
				})
			}
		}()
		c.Next()
	}
}
