package calls

import (
	"strings"
	"time"
)

// Event is the canonical inbound call event produced by a provider adapter.
//
// Invariants:
// - One Event per inbound webhook; it is never mutated after parsing.
// - An empty CallID means the webhook is not a recognized call webhook and must be ignored.
//
// Provider-specific fields stay in Raw (JSON, for audit/debug only).

type Event struct {
	CallID string `json:"call_id"`

	// From and To are E.164 where the provider sends them that way.
	From string `json:"from"`
	To   string `json:"to"`

	Status Status `json:"status"`

	// Provider is the adapter name that produced this event (e.g. "twilio").
	Provider   string    `json:"provider"`
	Direction  string    `json:"direction,omitempty"`
	ReceivedAt time.Time `json:"received_at"`

	Raw string `json:"raw,omitempty"`
}

// IsCall reports whether the event identifies a call and should be routed.
func (e Event) IsCall() bool {
	return strings.TrimSpace(e.CallID) != ""
}

type Status string

const (
	StatusRinging  Status = "ringing"
	StatusNoAnswer Status = "no-answer"
	StatusBusy     Status = "busy"
	StatusAnswered Status = "answered"
	StatusOther    Status = "other"
)

// NormalizeStatus maps vendor call-status spellings onto the canonical set.
// Unknown values map to StatusOther.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "ringing", "queued", "initiated", "started", "incoming":
		return StatusRinging
	case "no-answer", "noanswer", "unanswered", "timeout":
		return StatusNoAnswer
	case "busy", "rejected":
		return StatusBusy
	case "answered", "in-progress", "inprogress", "connected":
		return StatusAnswered
	default:
		return StatusOther
	}
}
