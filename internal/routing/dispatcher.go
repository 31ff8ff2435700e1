package routing

import (
	"context"
	"strings"

	"crm-telephony/internal/aiagent"
	"crm-telephony/internal/calls"
	"crm-telephony/internal/phonelines"
	"crm-telephony/pkg/logger"
)

// DefaultBridgeTimeout is the ring time when no rule applies.
const DefaultBridgeTimeout = 30

// secondsPerRing converts a rule's no-answer ring count to a bridge timeout.
const secondsPerRing = 5

// SipResolver resolves an AI provider to a dialable SIP address.
// *aiagent.Resolver implements it.
type SipResolver interface {
	Resolve(ctx context.Context, req aiagent.ResolveRequest) (string, error)
}

// Dispatcher turns a matched rule (or none) into a terminal command sequence.
// It never fails: every dependency error becomes a fallback sequence.
type Dispatcher struct {
	AI SipResolver
}

func (d *Dispatcher) Dispatch(ctx context.Context, rule *Rule, line phonelines.PhoneLine, ev calls.Event) []calls.Command {
	if rule == nil {
		return []calls.Command{calls.Bridge(line.OwnerTarget(), DefaultBridgeTimeout)}
	}
	log := logger.From(ctx)

	a := rule.Action
	switch a.Type {
	case ActionForwardNumber:
		if t := strings.TrimSpace(a.ForwardNumber.TargetNumber); t != "" {
			return []calls.Command{calls.Answer(), calls.Transfer(t)}
		}
		log.Warn("forward_number rule has no target, ringing owner", "rule_id", rule.ID)

	case ActionForwardAIAgent:
		return d.forwardToAI(ctx, rule, line, ev)

	case ActionVoicemail:
		return calls.VoicemailSequence(strings.TrimSpace(a.Voicemail.Greeting), calls.DefaultRecordMaxLength, a.Voicemail.Transcribe)

	case ActionPlayMessage:
		if u := strings.TrimSpace(a.PlayMessage.MessageURL); u != "" {
			return []calls.Command{calls.Answer(), calls.Playback(u), calls.Hangup()}
		}
		if txt := strings.TrimSpace(a.PlayMessage.MessageText); txt != "" {
			return []calls.Command{calls.Answer(), calls.Speak(txt), calls.Hangup()}
		}
		log.Warn("play_message rule has no message, ringing owner", "rule_id", rule.ID)

	case ActionHangup:
		return []calls.Command{calls.Hangup()}

	case ActionUnknown:
		log.Warn("unknown rule action, ringing owner", "rule_id", rule.ID, "action_type", a.RawType)

	default:
		log.Warn("unhandled rule action, ringing owner", "rule_id", rule.ID, "action_type", a.Type)
	}

	return []calls.Command{calls.Bridge(line.OwnerTarget(), rule.NoAnswerRings*secondsPerRing)}
}

func (d *Dispatcher) forwardToAI(ctx context.Context, rule *Rule, line phonelines.PhoneLine, ev calls.Event) []calls.Command {
	log := logger.From(ctx)

	if d.AI == nil {
		log.Error("ai forwarding not configured, using voicemail fallback", "rule_id", rule.ID, "call_id", ev.CallID)
		return aiFallback()
	}

	uri, err := d.AI.Resolve(ctx, aiagent.ResolveRequest{
		TenantID:    line.TenantID,
		ProviderID:  rule.Action.AIAgent.AIProviderID,
		AssistantID: rule.Action.AIAgent.AIAssistantID,
		Call: aiagent.CallContext{
			Reason: rule.Condition.Reason(),
			CallID: ev.CallID,
			From:   ev.From,
			To:     ev.To,
		},
	})
	if err != nil {
		log.Error("ai agent unavailable, using voicemail fallback",
			"rule_id", rule.ID,
			"call_id", ev.CallID,
			"ai_provider_id", rule.Action.AIAgent.AIProviderID,
			"err", err,
		)
		return aiFallback()
	}
	return []calls.Command{calls.Answer(), calls.Transfer(uri)}
}

func aiFallback() []calls.Command {
	return []calls.Command{
		calls.Answer(),
		calls.Speak(calls.PromptAIUnavailable),
		calls.RecordStart(calls.RecordFormatMP3, calls.DefaultRecordMaxLength, false),
	}
}
