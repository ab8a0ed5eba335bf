// File: internal/middleware/error.go
package middleware

import (
	"errors"

	"green_planet_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler is a Gin middleware that catches errors attached to the context
// and converts them into the standard JSON error envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			common.RespondWithError(c, apiErr)
			return
		}

		logger.Error("Unhandled error in request",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		common.RespondWithError(c, common.ErrInternalServer)
	}
}
