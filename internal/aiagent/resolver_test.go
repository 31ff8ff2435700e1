package aiagent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	uri    string
	err    error
	params SipParams
}

func (s *stubAdapter) Initialize(ProviderConfig) error { return nil }

func (s *stubAdapter) GetSipURI(ctx context.Context, p SipParams) (string, error) {
	s.params = p
	return s.uri, s.err
}

func stubFactory(a *stubAdapter) Factory {
	return func(vendorType string, cfg ProviderConfig) (Adapter, error) {
		if vendorType != "stub" {
			return nil, ErrUnknownVendor
		}
		return a, nil
	}
}

func seededStore() *MemoryStore {
	s := NewMemoryStore()
	s.Put(Provider{ID: "ai-1", Type: "stub", Kind: KindVoiceAgent, Name: "Stub"}, ProviderConfig{TenantID: "t-1"})
	s.Put(Provider{ID: "ai-2", Type: "unknown", Kind: KindVoiceAgent, Name: "Other"}, ProviderConfig{TenantID: "t-1"})
	return s
}

func TestResolverResolve(t *testing.T) {
	a := &stubAdapter{uri: "sip:asst@sip.example.com"}
	r := &Resolver{Store: seededStore(), Factory: stubFactory(a)}

	uri, err := r.Resolve(context.Background(), ResolveRequest{
		TenantID: "t-1", ProviderID: "ai-1", AssistantID: "asst",
		Call: CallContext{Reason: ReasonBusy, CallID: "CA1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sip:asst@sip.example.com", uri)
	assert.Equal(t, "asst", a.params.AssistantID)
	assert.Equal(t, ReasonBusy, a.params.Context.Reason)
}

func TestResolverFailuresAreUnavailable(t *testing.T) {
	cases := []struct {
		name string
		req  ResolveRequest
		a    *stubAdapter
	}{
		{"missing config", ResolveRequest{TenantID: "t-1", ProviderID: "nope"}, &stubAdapter{uri: "sip:a@b"}},
		{"other tenant", ResolveRequest{TenantID: "t-2", ProviderID: "ai-1"}, &stubAdapter{uri: "sip:a@b"}},
		{"unknown vendor", ResolveRequest{TenantID: "t-1", ProviderID: "ai-2"}, &stubAdapter{uri: "sip:a@b"}},
		{"adapter error", ResolveRequest{TenantID: "t-1", ProviderID: "ai-1"}, &stubAdapter{err: errors.New("timeout")}},
		{"invalid uri", ResolveRequest{TenantID: "t-1", ProviderID: "ai-1"}, &stubAdapter{uri: "tel:+7111"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Resolver{Store: seededStore(), Factory: stubFactory(tc.a)}
			_, err := r.Resolve(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestResolverKeepsCause(t *testing.T) {
	r := &Resolver{Store: seededStore(), Factory: stubFactory(&stubAdapter{})}
	_, err := r.Resolve(context.Background(), ResolveRequest{TenantID: "t-1", ProviderID: "ai-2"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrUnknownVendor)
}

func TestValidateSipURI(t *testing.T) {
	assert.NoError(t, ValidateSipURI("sip:asst@sip.vapi.ai"))
	assert.NoError(t, ValidateSipURI("sips:call_1@sip.example.com:5061"))
	assert.Error(t, ValidateSipURI("tel:+7111"))
	assert.Error(t, ValidateSipURI(""))
}
