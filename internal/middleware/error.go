package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/logger"
)

// ErrorHandler renders the last error attached to the Gin context as
// {"error":{"code","message"}}. Errors that are not AppErrors are logged and
// rendered as INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.Get().With(
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("unexpected error", "error", err.Error())
			render(c, apperrors.ErrInternalServer)
			return
		}
		if appErr.Internal != nil {
			log.Errorw("app error", "code", appErr.Code, "internal", appErr.Internal.Error())
		}
		render(c, appErr)
	}
}

// NoRoute renders unknown paths in the same error shape as the API.
func NoRoute(c *gin.Context) {
	render(c, apperrors.ErrNotFound)
}

func render(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}
