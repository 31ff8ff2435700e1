package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - tenant_id is set whenever the webhook resolved to a phone line.
// - ip capture is best-effort; do not block call routing on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id,omitempty" db:"tenant_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// Provider is the telephony adapter that received the webhook.
	Provider string `json:"provider" db:"provider"`

	// IPAddress is the webhook sender as resolved at the edge.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	CallID      string `json:"call_id,omitempty" db:"call_id"`
	PhoneLineID string `json:"phone_line_id,omitempty" db:"phone_line_id"`
	RuleID      string `json:"rule_id,omitempty" db:"rule_id"`
	Outcome     string `json:"outcome,omitempty" db:"outcome"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeWebhook EventType = "voice_webhook"
)
