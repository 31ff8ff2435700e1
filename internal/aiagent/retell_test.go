package aiagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetellGetSipURI(t *testing.T) {
	var got retellRegisterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/register-phone-call", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"call_id":"call_abc"}`))
	}))
	defer srv.Close()

	a, err := NewFactory(time.Second)(VendorRetell, ProviderConfig{Credentials: map[string]any{
		"api_key":  "k",
		"base_url": srv.URL,
		"agent_id": "agent-1",
	}})
	require.NoError(t, err)

	uri, err := a.GetSipURI(context.Background(), SipParams{Context: CallContext{
		Reason: ReasonAfterHours, CallID: "CA1", From: "+7111", To: "+7222",
	}})
	require.NoError(t, err)
	assert.Equal(t, "sip:call_abc@sip.retellai.com", uri)

	assert.Equal(t, "agent-1", got.AgentID)
	assert.Equal(t, "inbound", got.Direction)
	assert.Equal(t, "after_hours", got.DynamicVariables["reason"])
	assert.Equal(t, "CA1", got.DynamicVariables["telephony_call_id"])
}

func TestRetellVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a, err := NewFactory(time.Second)(VendorRetell, ProviderConfig{Credentials: map[string]any{"api_key": "k", "base_url": srv.URL}})
	require.NoError(t, err)

	_, err = a.GetSipURI(context.Background(), SipParams{AssistantID: "agent-1"})
	assert.Error(t, err)
}

func TestRetellEmptyCallID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a, err := NewFactory(time.Second)(VendorRetell, ProviderConfig{Credentials: map[string]any{"api_key": "k", "base_url": srv.URL}})
	require.NoError(t, err)

	_, err = a.GetSipURI(context.Background(), SipParams{AssistantID: "agent-1"})
	assert.Error(t, err)
}
