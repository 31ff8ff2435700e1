package telephony

import (
	"net/http"

	"crm-telephony/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
)

// TwilioSignature rejects voice webhooks whose X-Twilio-Signature does not match.
//
// Twilio signs the full public URL it called plus the sorted POST params, so
// publicBaseURL must be the scheme+host Twilio sees (the service may sit behind a proxy).
// Rejected requests get 403 with an empty TwiML response.
func TwilioSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)
	rejected := (&Twilio{}).Ignored()

	return func(c *gin.Context) {
		log := logger.FromGin(c)

		sig := c.GetHeader("X-Twilio-Signature")
		if sig == "" || c.Request.ParseForm() != nil {
			log.Warn("twilio webhook rejected", "reason", "missing signature or bad form")
			c.Data(http.StatusForbidden, rejected.ContentType, rejected.Body)
			c.Abort()
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		url := publicBaseURL + c.Request.URL.RequestURI()
		if !validator.Validate(url, params, sig) {
			log.Warn("twilio webhook rejected", "reason", "signature mismatch", "url", url)
			c.Data(http.StatusForbidden, rejected.ContentType, rejected.Body)
			c.Abort()
			return
		}
		c.Next()
	}
}
