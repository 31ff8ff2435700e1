package routing

import "crm-telephony/internal/calls"

// Decision is the vendor-neutral outcome of routing one webhook.
//
// Commands is always a terminal sequence, except for OutcomeIgnored where it is empty
// and the adapter's Ignored response is used.

type Decision struct {
	Outcome Outcome `json:"outcome"`

	TenantID    string     `json:"tenant_id,omitempty"`
	PhoneLineID string     `json:"phone_line_id,omitempty"`
	RuleID      string     `json:"rule_id,omitempty"`
	Action      ActionType `json:"action,omitempty"`

	Commands []calls.Command `json:"commands"`
}

type Outcome string

const (
	OutcomeIgnored        Outcome = "ignored"
	OutcomeNumberNotFound Outcome = "number_not_found"
	OutcomeDefaultBridge  Outcome = "default_bridge"
	OutcomeRuleApplied    Outcome = "rule_applied"
	OutcomeError          Outcome = "error"
)

// ErrorDecision is the apology + hangup used when routing fails.
func ErrorDecision() Decision {
	return Decision{Outcome: OutcomeError, Commands: calls.Apology()}
}
