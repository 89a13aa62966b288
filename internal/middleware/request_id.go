package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader  = "X-Request-Id"
	ContextRequestID = "request_id"

	contextLogger   = "request_logger"
	maxRequestIDLen = 64
)

// RequestID tags every request with an id, reusing the client's X-Request-Id
// when it is well formed. The id is echoed in the response and carried by a
// request-scoped logger that handlers fetch with RequestLogger.
func RequestID(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}

		reqLog := log.With().Str("request_id", requestID).Logger()

		c.Set(ContextRequestID, requestID)
		c.Set(contextLogger, reqLog)
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}

// RequestLogger returns the logger attached by RequestID, or fallback when
// the middleware did not run.
func RequestLogger(c *gin.Context, fallback zerolog.Logger) zerolog.Logger {
	if v, ok := c.Get(contextLogger); ok {
		if l, ok := v.(zerolog.Logger); ok {
			return l
		}
	}
	return fallback
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}

// validRequestID accepts up to 64 letters, digits, '-', '_' or '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
