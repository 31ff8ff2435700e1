package aiagent

import "context"

// ProviderConfig is a tenant's stored AI provider configuration.
// Credentials are vendor-specific and decoded by the adapter on Initialize.
type ProviderConfig struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Credentials map[string]any `json:"credentials"`
}

// Provider is a routable AI provider as listed for a tenant.
type Provider struct {
	ID   string `json:"id"`
	Type string `json:"type"` // vendor type, e.g. "vapi"
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// KindVoiceAgent marks providers that can take over a phone call.
const KindVoiceAgent = "voice_agent"

// ConfigStore is the read side of AI provider configuration.
//
// GetAIProviderConfig returns (nil, nil) when no config exists for id.
type ConfigStore interface {
	GetAIProviderConfig(ctx context.Context, id string) (*ProviderConfig, error)
	GetProvidersForRouting(ctx context.Context, tenantID, kind string) ([]Provider, error)
}
