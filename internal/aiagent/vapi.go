package aiagent

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type vapiConfig struct {
	APIKey      string `mapstructure:"api_key" validate:"required"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
	SipDomain   string `mapstructure:"sip_domain" validate:"omitempty,hostname"`
	AssistantID string `mapstructure:"assistant_id"`
}

// Vapi hands calls to a Vapi assistant over its SIP ingress.
// The assistant is confirmed over the REST API before the address is returned.
type Vapi struct {
	cfg     vapiConfig
	http    *resty.Client
	timeout time.Duration
}

func (v *Vapi) Initialize(cfg ProviderConfig) error {
	var c vapiConfig
	if err := decodeCredentials(cfg.Credentials, &c); err != nil {
		return err
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.vapi.ai"
	}
	if c.SipDomain == "" {
		c.SipDomain = "sip.vapi.ai"
	}
	v.cfg = c
	v.http = newHTTPClient(c.BaseURL, v.timeout).SetAuthToken(c.APIKey)
	return nil
}

func (v *Vapi) GetSipURI(ctx context.Context, p SipParams) (string, error) {
	if v.http == nil {
		return "", errors.New("aiagent: vapi not initialized")
	}
	assistant := strings.TrimSpace(p.AssistantID)
	if assistant == "" {
		assistant = v.cfg.AssistantID
	}
	if assistant == "" {
		return "", errors.New("aiagent: vapi assistant id required")
	}

	var out struct {
		ID string `json:"id"`
	}
	resp, err := v.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/assistant/" + url.PathEscape(assistant))
	if err != nil {
		return "", fmt.Errorf("aiagent: vapi get assistant: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("aiagent: vapi get assistant: status %d", resp.StatusCode())
	}
	if out.ID != "" && out.ID != assistant {
		return "", fmt.Errorf("aiagent: vapi returned assistant %q for %q", out.ID, assistant)
	}

	uri := "sip:" + assistant + "@" + v.cfg.SipDomain
	if p.Context.Reason != ReasonNone {
		uri += ";x-reason=" + string(p.Context.Reason)
	}
	return uri, nil
}

func newHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
}
