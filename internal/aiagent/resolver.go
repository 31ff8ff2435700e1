package aiagent

import (
	"context"
	"fmt"
	"time"
)

// Resolver runs the full chain from a stored provider id to a dialable SIP address:
// config lookup, vendor type lookup, adapter construction, SIP resolution, URI validation.
// Every failure is returned wrapped in ErrUnavailable.
type Resolver struct {
	Store   ConfigStore
	Factory Factory

	// Timeout bounds the whole chain. Zero means no extra bound beyond ctx.
	Timeout time.Duration
}

type ResolveRequest struct {
	TenantID    string
	ProviderID  string
	AssistantID string
	Call        CallContext
}

func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cfg, err := r.Store.GetAIProviderConfig(ctx, req.ProviderID)
	if err != nil {
		return "", unavailable("load provider config", err)
	}
	if cfg == nil {
		return "", fmt.Errorf("%w: provider config %q not found", ErrUnavailable, req.ProviderID)
	}

	providers, err := r.Store.GetProvidersForRouting(ctx, req.TenantID, KindVoiceAgent)
	if err != nil {
		return "", unavailable("list routing providers", err)
	}
	var vendorType string
	for _, p := range providers {
		if p.ID == req.ProviderID {
			vendorType = p.Type
			break
		}
	}
	if vendorType == "" {
		return "", fmt.Errorf("%w: provider %q not routable for tenant", ErrUnavailable, req.ProviderID)
	}

	adapter, err := r.Factory(vendorType, *cfg)
	if err != nil {
		return "", unavailable("create adapter", err)
	}
	uri, err := adapter.GetSipURI(ctx, SipParams{AssistantID: req.AssistantID, Context: req.Call})
	if err != nil {
		return "", unavailable("get sip uri", err)
	}
	if err := ValidateSipURI(uri); err != nil {
		return "", unavailable("validate sip uri", err)
	}
	return uri, nil
}

func unavailable(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, step, err)
}
