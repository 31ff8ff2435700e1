package main

import (
	"database/sql"
	"time"

	"crm-telephony/internal/auth"
	"crm-telephony/internal/config"
	"crm-telephony/internal/httpapi"
	"crm-telephony/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	Engine httpapi.Router
	Audit  httpapi.DecisionLogger
	DB     *sql.DB
	Redis  redis.UniversalClient
}

const readinessTimeout = 2 * time.Second

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
// It returns the webhook handlers so main can drain their background work on shutdown.
func registerRoutes(r *gin.Engine, cfg config.Config, deps routeDeps) ([]*httpapi.WebhookHandler, error) {
	// public
	r.GET("/healthz", httpapi.Health)
	r.GET("/readyz", httpapi.Readiness(
		httpapi.PostgresCheck(deps.DB, readinessTimeout),
		httpapi.RedisCheck(deps.Redis, readinessTimeout),
	))

	hooks := r.Group("/webhooks")

	twilio := &httpapi.WebhookHandler{Adapter: telephony.NewTwilio(), Engine: deps.Engine, Audit: deps.Audit}
	{
		var mw []gin.HandlerFunc
		if cfg.Twilio.ValidateSignature {
			mw = append(mw, telephony.TwilioSignature(cfg.Twilio.AuthToken, cfg.Twilio.PublicBaseURL))
		}
		hooks.POST("/twilio/voice", append(mw, twilio.Handle)...)
	}

	jsonVoice := &httpapi.WebhookHandler{Adapter: telephony.NewJSONVoice(), Engine: deps.Engine, Audit: deps.Audit}
	{
		var mw []gin.HandlerFunc
		if cfg.JSONVoice.SigningSecret != "" {
			v, err := auth.NewWebhookVerifier(cfg.JSONVoice)
			if err != nil {
				return nil, err
			}
			rejected := jsonVoice.Adapter.Ignored()
			mw = append(mw, auth.RequireSignedWebhook(v, rejected.ContentType, rejected.Body))
		}
		hooks.POST("/jsonvoice/voice", append(mw, jsonVoice.Handle)...)
	}

	return []*httpapi.WebhookHandler{twilio, jsonVoice}, nil
}
