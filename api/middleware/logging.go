package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/OldStager01/alert-arbiter/internal/logger"
)

const TraceIDHeader = "X-Trace-ID"

const maxTraceIDLength = 64

// TraceID tags the request context with a trace id, reusing the caller's
// when it is short enough to log safely.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDLength {
			traceID = uuid.NewString()
		}

		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))

		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	return logger.TraceIDFromContext(c.Request.Context())
}

// RequestLogger writes one line per request. Liveness probes only show at
// debug level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"status":     status,
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		})
		if operator := GetOperator(c); operator != "" {
			entry = entry.WithField("operator", operator)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		case c.FullPath() == "/health/live":
			entry.Debug("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
