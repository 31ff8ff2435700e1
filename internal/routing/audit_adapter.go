package routing

import (
	"context"
	"encoding/json"

	"crm-telephony/internal/audit"
	"crm-telephony/internal/calls"
)

// AuditAdapter records routing decisions in the shared audit log.
//
// This keeps routing internals from depending on persistence.

type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) LogDecision(ctx context.Context, provider string, ev calls.Event, d Decision) error {
	if a.Audit == nil {
		return nil
	}
	kinds := make([]calls.CommandKind, 0, len(d.Commands))
	for _, c := range d.Commands {
		kinds = append(kinds, c.Kind)
	}
	meta, _ := json.Marshal(struct {
		Status   calls.Status        `json:"status,omitempty"`
		From     string              `json:"from,omitempty"`
		To       string              `json:"to,omitempty"`
		Commands []calls.CommandKind `json:"commands"`
		Raw      json.RawMessage     `json:"raw,omitempty"`
	}{
		Status:   ev.Status,
		From:     ev.From,
		To:       ev.To,
		Commands: kinds,
		Raw:      rawJSON(ev.Raw),
	})

	return a.Audit.Append(ctx, audit.Event{
		TenantID:    d.TenantID,
		Type:        audit.EventTypeWebhook,
		Provider:    provider,
		CallID:      ev.CallID,
		PhoneLineID: d.PhoneLineID,
		RuleID:      d.RuleID,
		Outcome:     string(d.Outcome),
		IPAddress:   ClientIPFromContext(ctx),
		Message:     "voice webhook routed",
		Metadata:    string(meta),
	})
}

func rawJSON(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return nil
	}
	return json.RawMessage(s)
}
