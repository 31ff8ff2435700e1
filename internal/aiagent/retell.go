package aiagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type retellConfig struct {
	APIKey    string `mapstructure:"api_key" validate:"required"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	SipDomain string `mapstructure:"sip_domain" validate:"omitempty,hostname"`
	AgentID   string `mapstructure:"agent_id"`
}

// Retell registers each inbound call with Retell and dials the returned call id over SIP.
type Retell struct {
	cfg     retellConfig
	http    *resty.Client
	timeout time.Duration
}

type retellRegisterRequest struct {
	AgentID          string            `json:"agent_id"`
	FromNumber       string            `json:"from_number,omitempty"`
	ToNumber         string            `json:"to_number,omitempty"`
	Direction        string            `json:"direction"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
}

type retellRegisterResponse struct {
	CallID string `json:"call_id"`
}

func (r *Retell) Initialize(cfg ProviderConfig) error {
	var c retellConfig
	if err := decodeCredentials(cfg.Credentials, &c); err != nil {
		return err
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.retellai.com"
	}
	if c.SipDomain == "" {
		c.SipDomain = "sip.retellai.com"
	}
	r.cfg = c
	r.http = newHTTPClient(c.BaseURL, r.timeout).SetAuthToken(c.APIKey)
	return nil
}

func (r *Retell) GetSipURI(ctx context.Context, p SipParams) (string, error) {
	if r.http == nil {
		return "", errors.New("aiagent: retell not initialized")
	}
	agent := strings.TrimSpace(p.AssistantID)
	if agent == "" {
		agent = r.cfg.AgentID
	}
	if agent == "" {
		return "", errors.New("aiagent: retell agent id required")
	}

	body := retellRegisterRequest{
		AgentID:    agent,
		FromNumber: p.Context.From,
		ToNumber:   p.Context.To,
		Direction:  "inbound",
	}
	if p.Context.Reason != ReasonNone || p.Context.CallID != "" {
		body.DynamicVariables = map[string]string{}
		if p.Context.Reason != ReasonNone {
			body.DynamicVariables["reason"] = string(p.Context.Reason)
		}
		if p.Context.CallID != "" {
			body.DynamicVariables["telephony_call_id"] = p.Context.CallID
		}
	}

	var out retellRegisterResponse
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v2/register-phone-call")
	if err != nil {
		return "", fmt.Errorf("aiagent: retell register call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("aiagent: retell register call: status %d", resp.StatusCode())
	}
	if strings.TrimSpace(out.CallID) == "" {
		return "", errors.New("aiagent: retell returned no call id")
	}
	return "sip:" + out.CallID + "@" + r.cfg.SipDomain, nil
}
