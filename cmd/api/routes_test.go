package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crm-telephony/internal/calls"
	"crm-telephony/internal/config"
	"crm-telephony/internal/routing"

	"github.com/gin-gonic/gin"
)

type hangupRouter struct{}

func (hangupRouter) Route(context.Context, calls.Event) (routing.Decision, error) {
	return routing.Decision{Outcome: routing.OutcomeRuleApplied, Commands: []calls.Command{calls.Hangup()}}, nil
}

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if _, err := registerRoutes(r, cfg, routeDeps{Engine: hangupRouter{}}); err != nil {
		t.Fatalf("registerRoutes: %v", err)
	}
	return r
}

func TestRoutes_HealthAndWebhooks(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/jsonvoice/voice", strings.NewReader(`{"call_id":"c-1","to":"+74950000000"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"hangup"`) {
		t.Fatalf("expected hangup response, got %d %s", w.Code, w.Body.String())
	}
}

func TestRoutes_TwilioSignatureEnforced(t *testing.T) {
	cfg := config.Config{Twilio: config.TwilioConfig{AuthToken: "tok", ValidateSignature: true, PublicBaseURL: "https://crm.example.com"}}
	r := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader("CallSid=CA1&To=%2B74950000000"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without signature, got %d", w.Code)
	}
}

func TestRoutes_JSONVoiceTokenEnforced(t *testing.T) {
	cfg := config.Config{JSONVoice: config.JSONVoiceConfig{SigningSecret: "s3cret"}}
	r := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/jsonvoice/voice", strings.NewReader(`{"call_id":"c-1"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", w.Code)
	}
}
