package telephony

import (
	"net/http"

	"crm-telephony/internal/calls"
)

// Adapter translates between one telephony vendor's webhook protocol and the
// canonical call model.
//
// Rules:
// - No routing decisions here; adapters only parse and render.
// - Parse fails closed: anything that is not a recognizable call webhook yields ok=false.
// - Render is pure: the same commands always produce byte-identical output.
type Adapter interface {
	Name() string

	Parse(r *http.Request) (calls.Event, bool)

	// Normalize applies vendor-local adjustments to a command sequence before rendering
	// (e.g. vendors that need an explicit answer before bridging).
	Normalize(cmds []calls.Command) []calls.Command

	Render(cmds []calls.Command) (WireResponse, error)

	// RingOwner renders the default bridge to the line owner, and Voicemail the
	// greeting + record sequence. Both fall back to Fallback when unrenderable.
	RingOwner(to string, timeoutSecs int) WireResponse
	Voicemail(greeting string, maxLengthSecs int, transcribe bool) WireResponse

	// Ignored acknowledges a webhook that is not routed.
	Ignored() WireResponse

	// Fallback is a static apology + hangup, used when rendering itself fails.
	Fallback() WireResponse
}

// WireResponse is a fully rendered HTTP response for the vendor.
type WireResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

const (
	ProviderTwilio    = "twilio"
	ProviderJSONVoice = "jsonvoice"
)

const (
	contentTypeXML  = "text/xml; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// renderOrFallback renders cmds through a, returning a's Fallback on failure.
func renderOrFallback(a Adapter, cmds []calls.Command) WireResponse {
	res, err := a.Render(a.Normalize(cmds))
	if err != nil {
		return a.Fallback()
	}
	return res
}
