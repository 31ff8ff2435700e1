package auth

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"crm-telephony/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

const maxSignedBody = 1 << 20

// RequireSignedWebhook verifies the bearer token against the raw request body.
// The body is restored for the downstream handler. Rejected requests get 403
// with rejectBody so the vendor still receives a well-formed response.
func RequireSignedWebhook(v *WebhookVerifier, contentType string, rejectBody []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)
		reject := func(reason string, err error) {
			log.Warn("signed webhook rejected", "reason", reason, "err", err)
			c.Data(http.StatusForbidden, contentType, rejectBody)
			c.Abort()
		}

		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			reject("missing bearer token", nil)
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSignedBody))
		if err != nil {
			reject("read body", err)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		claims, err := v.Verify(tok, body, time.Now())
		if err != nil {
			reject("invalid token", err)
			return
		}

		if claims.Subject != "" {
			acctLog := log.With("vendor_account", claims.Subject)
			c.Set("logger", acctLog)
			c.Request = c.Request.WithContext(logger.With(c.Request.Context(), acctLog))
		}
		c.Next()
	}
}
