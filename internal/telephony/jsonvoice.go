package telephony

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crm-telephony/internal/calls"
)

// JSONVoice is the adapter for vendors that speak a JSON command protocol:
//
//	inbound:  {"event":"call.incoming","call_id":"...","from":"...","to":"...","status":"...","direction":"..."}
//	response: {"commands":[{"type":"answer"},{"type":"bridge","payload":{"to":"...","timeout":30}}]}
type JSONVoice struct {
	Now func() time.Time
}

func NewJSONVoice() *JSONVoice {
	return &JSONVoice{Now: time.Now}
}

const (
	// jsonVoiceBridgeTimeout is used when a bridge carries no explicit timeout.
	jsonVoiceBridgeTimeout = 30

	maxWebhookBody = 1 << 20
)

var (
	jsonIgnored  = []byte(`{"status":"ignored"}`)
	jsonFallback = mustJSON(jsonResponse{Commands: []jsonCommand{
		{Type: "speak", Payload: speakPayload{Text: calls.PromptError, Language: calls.DefaultLanguage}},
		{Type: "hangup"},
	}})
)

type jsonInbound struct {
	Event     string `json:"event"`
	CallID    string `json:"call_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
}

type jsonResponse struct {
	Commands []jsonCommand `json:"commands"`
}

type jsonCommand struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type transferPayload struct {
	To string `json:"to"`
}

type bridgePayload struct {
	To      string `json:"to"`
	Timeout int    `json:"timeout"`
}

type speakPayload struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type playbackPayload struct {
	URL string `json:"url"`
}

type recordPayload struct {
	Format     string `json:"format"`
	MaxLength  int    `json:"max_length,omitempty"`
	Transcribe bool   `json:"transcribe,omitempty"`
}

func (a *JSONVoice) Name() string { return ProviderJSONVoice }

func (a *JSONVoice) Parse(r *http.Request) (calls.Event, bool) {
	if r == nil || r.Body == nil {
		return calls.Event{}, false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return calls.Event{}, false
	}
	var in jsonInbound
	if err := json.Unmarshal(body, &in); err != nil {
		return calls.Event{}, false
	}
	// Non-call notifications (e.g. "recording.ready") are acknowledged but not routed.
	if in.Event != "" && !strings.HasPrefix(strings.ToLower(in.Event), "call") {
		return calls.Event{}, false
	}
	in.CallID = strings.TrimSpace(in.CallID)
	if in.CallID == "" {
		return calls.Event{}, false
	}
	return calls.Event{
		CallID:     in.CallID,
		From:       strings.TrimSpace(in.From),
		To:         strings.TrimSpace(in.To),
		Status:     calls.NormalizeStatus(in.Status),
		Provider:   ProviderJSONVoice,
		Direction:  in.Direction,
		ReceivedAt: a.now(),
		Raw:        string(body),
	}, true
}

// Normalize makes answers explicit: this protocol does not pick up the call on bridge.
func (a *JSONVoice) Normalize(cmds []calls.Command) []calls.Command {
	out := make([]calls.Command, 0, len(cmds)+1)
	for i, c := range cmds {
		if c.Kind == calls.KindBridge && (i == 0 || cmds[i-1].Kind != calls.KindAnswer) {
			out = append(out, calls.Answer())
		}
		out = append(out, c)
	}
	return out
}

func (a *JSONVoice) Render(cmds []calls.Command) (WireResponse, error) {
	res := jsonResponse{Commands: make([]jsonCommand, 0, len(cmds))}
	for _, c := range cmds {
		jc, err := jsonVoiceCommand(c)
		if err != nil {
			return WireResponse{}, err
		}
		res.Commands = append(res.Commands, jc)
	}
	body, err := json.Marshal(res)
	if err != nil {
		return WireResponse{}, fmt.Errorf("telephony: jsonvoice render: %w", err)
	}
	return WireResponse{Status: http.StatusOK, ContentType: contentTypeJSON, Body: body}, nil
}

func (a *JSONVoice) RingOwner(to string, timeoutSecs int) WireResponse {
	return renderOrFallback(a, []calls.Command{calls.Bridge(to, timeoutSecs)})
}

func (a *JSONVoice) Voicemail(greeting string, maxLengthSecs int, transcribe bool) WireResponse {
	return renderOrFallback(a, calls.VoicemailSequence(greeting, maxLengthSecs, transcribe))
}

func (a *JSONVoice) Ignored() WireResponse {
	return WireResponse{Status: http.StatusOK, ContentType: contentTypeJSON, Body: jsonIgnored}
}

func (a *JSONVoice) Fallback() WireResponse {
	return WireResponse{Status: http.StatusOK, ContentType: contentTypeJSON, Body: jsonFallback}
}

func (a *JSONVoice) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func jsonVoiceCommand(c calls.Command) (jsonCommand, error) {
	switch c.Kind {
	case calls.KindAnswer, calls.KindHangup:
		return jsonCommand{Type: string(c.Kind)}, nil
	case calls.KindTransfer:
		if strings.TrimSpace(c.To) == "" {
			return jsonCommand{}, errors.New("telephony: transfer target required")
		}
		return jsonCommand{Type: string(c.Kind), Payload: transferPayload{To: c.To}}, nil
	case calls.KindBridge:
		if strings.TrimSpace(c.To) == "" {
			return jsonCommand{}, errors.New("telephony: bridge target required")
		}
		secs := c.TimeoutSecs
		if secs <= 0 {
			secs = jsonVoiceBridgeTimeout
		}
		return jsonCommand{Type: string(c.Kind), Payload: bridgePayload{To: c.To, Timeout: secs}}, nil
	case calls.KindSpeak:
		return jsonCommand{Type: string(c.Kind), Payload: speakPayload{Text: c.Text, Language: c.Language}}, nil
	case calls.KindPlayback:
		if strings.TrimSpace(c.AudioURL) == "" {
			return jsonCommand{}, errors.New("telephony: playback requires audio url")
		}
		return jsonCommand{Type: string(c.Kind), Payload: playbackPayload{URL: c.AudioURL}}, nil
	case calls.KindRecordStart:
		return jsonCommand{Type: string(c.Kind), Payload: recordPayload{
			Format:     c.Format,
			MaxLength:  c.MaxLengthSecs,
			Transcribe: c.Transcribe,
		}}, nil
	default:
		return jsonCommand{}, fmt.Errorf("telephony: jsonvoice cannot render command %q", c.Kind)
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
