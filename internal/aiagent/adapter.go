package aiagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Adapter resolves a SIP address for an AI voice-agent vendor.
//
// Rules:
// - Initialize must be called once before GetSipURI.
// - Implementations make at most one outbound request per call and never retry;
//   the telephony vendor is waiting on the webhook response.
type Adapter interface {
	Initialize(cfg ProviderConfig) error
	GetSipURI(ctx context.Context, p SipParams) (string, error)
}

type SipParams struct {
	// AssistantID is optional; vendors fall back to the assistant configured on the provider.
	AssistantID string
	Context     CallContext
}

// CallContext is passed through so the agent can greet the caller contextually.
type CallContext struct {
	Reason Reason
	CallID string
	From   string
	To     string
}

type Reason string

const (
	ReasonNone       Reason = ""
	ReasonAfterHours Reason = "after_hours"
	ReasonNoAnswer   Reason = "no_answer"
	ReasonBusy       Reason = "busy"
)

const (
	VendorVapi   = "vapi"
	VendorRetell = "retell"
)

var (
	// ErrUnavailable wraps every failure to produce a SIP address.
	ErrUnavailable   = errors.New("aiagent: unavailable")
	ErrUnknownVendor = errors.New("aiagent: unknown vendor")
	ErrInvalidConfig = errors.New("aiagent: invalid config")
)

// Factory builds an initialized adapter for a vendor type.
type Factory func(vendorType string, cfg ProviderConfig) (Adapter, error)

// NewFactory returns the production factory. timeout bounds each vendor HTTP request.
func NewFactory(timeout time.Duration) Factory {
	return func(vendorType string, cfg ProviderConfig) (Adapter, error) {
		var a Adapter
		switch strings.ToLower(strings.TrimSpace(vendorType)) {
		case VendorVapi:
			a = &Vapi{timeout: timeout}
		case VendorRetell:
			a = &Retell{timeout: timeout}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownVendor, vendorType)
		}
		if err := a.Initialize(cfg); err != nil {
			return nil, err
		}
		return a, nil
	}
}
