package routing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crm-telephony/internal/aiagent"
)

// Rule is a conditional routing rule attached to a phone line.
//
// NoAnswerRings and Priority are optional; zero NoAnswerRings and nil Priority mean unset.
type Rule struct {
	ID          string    `json:"id"`
	PhoneLineID string    `json:"phone_line_id"`
	Condition   Condition `json:"condition"`
	Action      Action    `json:"action"`

	NoAnswerRings  int   `json:"no_answer_rings,omitempty"`
	TriggeredCount int64 `json:"triggered_count"`

	Priority  *int      `json:"priority,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Condition string

const (
	ConditionNoAnswer   Condition = "no_answer"
	ConditionBusy       Condition = "busy"
	ConditionAfterHours Condition = "after_hours"
	ConditionVIP        Condition = "vip"
	ConditionNewCaller  Condition = "new_caller"

	// Catch-all conditions; always evaluated after every other rule.
	ConditionAlways  Condition = "always"
	ConditionDefault Condition = "default"
)

func (c Condition) catchAll() bool {
	return c == ConditionAlways || c == ConditionDefault
}

// Reason is the context passed to AI agents for this condition.
func (c Condition) Reason() aiagent.Reason {
	switch c {
	case ConditionAfterHours:
		return aiagent.ReasonAfterHours
	case ConditionNoAnswer:
		return aiagent.ReasonNoAnswer
	case ConditionBusy:
		return aiagent.ReasonBusy
	default:
		return aiagent.ReasonNone
	}
}

type ActionType string

const (
	ActionForwardNumber  ActionType = "forward_number"
	ActionForwardAIAgent ActionType = "forward_ai_agent"
	ActionVoicemail      ActionType = "voicemail"
	ActionPlayMessage    ActionType = "play_message"
	ActionHangup         ActionType = "hangup"

	// ActionUnknown is any stored type this build does not understand.
	ActionUnknown ActionType = "unknown"
)

// Action is a tagged union: Type selects which payload field is meaningful.
type Action struct {
	Type ActionType `json:"type"`

	// RawType keeps the stored type string for unknown actions.
	RawType string `json:"raw_type,omitempty"`

	ForwardNumber ForwardNumber  `json:"forward_number"`
	AIAgent       ForwardAIAgent `json:"forward_ai_agent"`
	Voicemail     Voicemail      `json:"voicemail"`
	PlayMessage   PlayMessage    `json:"play_message"`
}

type ForwardNumber struct {
	TargetNumber string `json:"target_number"`
}

type ForwardAIAgent struct {
	AIProviderID  string `json:"ai_provider_id"`
	AIAssistantID string `json:"ai_assistant_id,omitempty"`
}

type Voicemail struct {
	Greeting   string `json:"greeting,omitempty"`
	Transcribe bool   `json:"transcribe,omitempty"`
}

type PlayMessage struct {
	MessageURL  string `json:"message_url,omitempty"`
	MessageText string `json:"message_text,omitempty"`
}

// ParseAction decodes a stored (type, config) pair. Unknown types are kept as
// ActionUnknown rather than rejected; malformed config for a known type is an error.
func ParseAction(actionType string, config []byte) (Action, error) {
	t := ActionType(strings.ToLower(strings.TrimSpace(actionType)))
	a := Action{Type: t}

	var target any
	switch t {
	case ActionForwardNumber:
		target = &a.ForwardNumber
	case ActionForwardAIAgent:
		target = &a.AIAgent
	case ActionVoicemail:
		target = &a.Voicemail
	case ActionPlayMessage:
		target = &a.PlayMessage
	case ActionHangup:
		return a, nil
	default:
		return Action{Type: ActionUnknown, RawType: actionType}, nil
	}

	if len(config) == 0 || string(config) == "null" {
		return a, nil
	}
	if err := json.Unmarshal(config, target); err != nil {
		return Action{}, fmt.Errorf("routing: decode %s action: %w", t, err)
	}
	return a, nil
}
