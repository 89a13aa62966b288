package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		reqLog := RequestLogger(c, log)

		event := reqLog.Info()
		if status >= 500 {
			event = reqLog.Error()
		} else if status >= 400 {
			event = reqLog.Warn()
		}

		if subject := SubjectID(c); subject != "" {
			event = event.Str("subject_id", subject)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
