package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/common"
)

// Recovery converts panics into a 500 envelope instead of killing the
// connection.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", GetRequestID(c)).
					Msg("handler panicked")
				if !c.Writer.Written() {
					common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
