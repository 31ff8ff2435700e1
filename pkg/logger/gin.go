package logger

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// Twilio tags every webhook attempt; retries of the same attempt reuse it.
const headerTwilioIdempotency = "I-Twilio-Idempotency-Token"

// quietPaths are polled every few seconds by orchestrators; summaries go to debug.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// Middleware returns a Gin middleware that injects request_id and logs request summaries.
// The request-scoped logger is also attached to the request context (see From).
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := requestID(c)
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			reqLogger.Error("request", attrs...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("request", attrs...)
		case quietPaths[path]:
			reqLogger.Debug("request", attrs...)
		default:
			reqLogger.Info("request", attrs...)
		}
	}
}

func requestID(c *gin.Context) string {
	if rid := strings.TrimSpace(c.GetHeader(headerRequestID)); rid != "" {
		return rid
	}
	if rid := strings.TrimSpace(c.GetHeader(headerTwilioIdempotency)); rid != "" {
		return rid
	}
	return uuid.NewString()
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
