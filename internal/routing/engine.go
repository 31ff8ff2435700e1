package routing

import (
	"context"
	"errors"
	"fmt"

	"crm-telephony/internal/calls"
	"crm-telephony/internal/phonelines"
	"crm-telephony/pkg/logger"
)

// Engine routes one canonical call event to a Decision.
//
// Pipeline: phone line lookup -> routing context -> rule match -> counter (async) -> dispatch.
// Stateless per request. On error the returned Decision is ErrorDecision; callers
// still respond with it.
type Engine struct {
	PhoneLines phonelines.Repository
	Contexts   ContextBuilder
	Matcher    *Matcher
	Counter    TriggerCounter
	Dispatcher *Dispatcher
}

func (e *Engine) Route(ctx context.Context, ev calls.Event) (Decision, error) {
	if !ev.IsCall() {
		return Decision{Outcome: OutcomeIgnored}, nil
	}
	log := logger.From(ctx).With("call_id", ev.CallID, "provider", ev.Provider)

	line, err := e.PhoneLines.GetByNumber(ctx, ev.To)
	if errors.Is(err, phonelines.ErrNotFound) {
		log.Info("inbound call to unknown number", "to", ev.To)
		return Decision{Outcome: OutcomeNumberNotFound, Commands: calls.NumberNotFound()}, nil
	}
	if err != nil {
		return ErrorDecision(), fmt.Errorf("routing: phone line lookup: %w", err)
	}
	ctx = logger.With(ctx, log.With("phone_line_id", line.ID, "tenant_id", line.TenantID))

	builder := e.Contexts
	if builder == nil {
		builder = FlagContextBuilder{}
	}
	rc := builder.Build(ctx, line, ev)

	rule, err := e.Matcher.Match(ctx, line.ID, rc)
	if err != nil {
		return ErrorDecision(), fmt.Errorf("routing: match rules: %w", err)
	}

	d := Decision{TenantID: line.TenantID, PhoneLineID: line.ID}
	if rule == nil {
		d.Outcome = OutcomeDefaultBridge
		d.Commands = e.Dispatcher.Dispatch(ctx, nil, line, ev)
		return d, nil
	}

	if e.Counter != nil {
		if err := e.Counter.IncrementTriggeredCount(ctx, rule.ID); err != nil {
			logger.From(ctx).Warn("rule counter increment failed", "rule_id", rule.ID, "err", err)
		}
	}

	d.Outcome = OutcomeRuleApplied
	d.RuleID = rule.ID
	d.Action = rule.Action.Type
	d.Commands = calls.EnsureTerminal(e.Dispatcher.Dispatch(ctx, rule, line, ev))
	logger.From(ctx).Info("routing rule applied",
		"rule_id", rule.ID,
		"condition", rule.Condition,
		"action", rule.Action.Type,
	)
	return d, nil
}
