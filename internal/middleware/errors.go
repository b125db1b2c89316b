package middleware

import (
	"net/http"

	"erp-admin/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "Internal server error"

// ErrorBody はエラーレスポンスの形式
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RenderError writes err with the status of its kind. Untyped and internal
// errors are logged and answered without detail.
func RenderError(c *gin.Context, log zerolog.Logger, err error) {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		log.Error().
			Err(err).
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
			Error:   apperror.KindInternal.String(),
			Message: internalErrorMessage,
		})
		return
	}

	body := ErrorBody{Error: appErr.Kind.String(), Message: appErr.Message}
	if appErr.Kind == apperror.KindValidation || appErr.Kind == apperror.KindConflict {
		body.Errors = appErr.Fields
	}
	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), body)
}

// ErrorHandler はハンドラーが c.Error で登録した最後のエラーをレスポンスに変換する
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RenderError(c, log, c.Errors.Last().Err)
	}
}
