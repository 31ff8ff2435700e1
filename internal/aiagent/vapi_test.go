package aiagent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVapiGetSipURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant/asst-1", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"asst-1"}`))
	}))
	defer srv.Close()

	a, err := NewFactory(time.Second)(VendorVapi, ProviderConfig{Credentials: map[string]any{
		"api_key":  "key-1",
		"base_url": srv.URL,
	}})
	require.NoError(t, err)

	uri, err := a.GetSipURI(context.Background(), SipParams{AssistantID: "asst-1", Context: CallContext{Reason: ReasonNoAnswer}})
	require.NoError(t, err)
	assert.Equal(t, "sip:asst-1@sip.vapi.ai;x-reason=no_answer", uri)
	assert.NoError(t, ValidateSipURI(uri))
}

func TestVapiUsesConfiguredAssistant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a, err := NewFactory(time.Second)("VAPI", ProviderConfig{Credentials: map[string]any{
		"api_key":      "k",
		"base_url":     srv.URL,
		"assistant_id": "default-asst",
		"sip_domain":   "sip.example.com",
	}})
	require.NoError(t, err)

	uri, err := a.GetSipURI(context.Background(), SipParams{})
	require.NoError(t, err)
	assert.Equal(t, "sip:default-asst@sip.example.com", uri)
}

func TestVapiUnknownAssistant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a, err := NewFactory(time.Second)(VendorVapi, ProviderConfig{Credentials: map[string]any{"api_key": "k", "base_url": srv.URL}})
	require.NoError(t, err)

	_, err = a.GetSipURI(context.Background(), SipParams{AssistantID: "missing"})
	assert.Error(t, err)

	_, err = a.GetSipURI(context.Background(), SipParams{})
	assert.Error(t, err, "no assistant configured anywhere")
}

func TestFactoryRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(time.Second)(VendorVapi, ProviderConfig{Credentials: map[string]any{}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewFactory(time.Second)(VendorRetell, ProviderConfig{Credentials: map[string]any{"api_key": "k", "base_url": "not a url"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewFactory(time.Second)("bland", ProviderConfig{})
	assert.ErrorIs(t, err, ErrUnknownVendor)
}
