package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func twilioSign(token, fullURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signatureRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/twilio/voice", TwilioSignature("secret-token", "https://crm.example.com"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestTwilioSignature(t *testing.T) {
	params := map[string]string{"CallSid": "CA1", "From": "+7111", "To": "+7222"}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	valid := twilioSign("secret-token", "https://crm.example.com/webhooks/twilio/voice", params)

	cases := []struct {
		name string
		sig  string
		want int
	}{
		{"valid", valid, http.StatusNoContent},
		{"missing", "", http.StatusForbidden},
		{"tampered", twilioSign("other-token", "https://crm.example.com/webhooks/twilio/voice", params), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tc.sig != "" {
				req.Header.Set("X-Twilio-Signature", tc.sig)
			}
			w := httptest.NewRecorder()
			signatureRouter().ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if tc.want == http.StatusForbidden && !strings.Contains(w.Body.String(), "<Response></Response>") {
				t.Fatalf("expected empty TwiML on rejection, got %s", w.Body.String())
			}
		})
	}
}
