package routing

import (
	"context"
	"sort"
)

// Matcher picks the first rule of a phone line whose condition holds.
//
// Evaluation order:
//  1. inactive rules are skipped
//  2. rules with a Priority, ascending
//  3. rules without a Priority
//  4. ties broken by CreatedAt, then ID
//
// Catch-all conditions (always, default) are evaluated after every other rule
// regardless of priority.
type Matcher struct {
	Rules RuleStore
}

func (m *Matcher) Match(ctx context.Context, phoneLineID string, rc Context) (*Rule, error) {
	rules, err := m.Rules.ListRules(ctx, phoneLineID)
	if err != nil {
		return nil, err
	}
	for _, r := range orderRules(rules) {
		if Satisfied(r.Condition, rc) {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

// Satisfied maps a condition onto the routing context. Unknown conditions never match.
func Satisfied(c Condition, rc Context) bool {
	switch c {
	case ConditionNoAnswer:
		return rc.IsNoAnswer
	case ConditionBusy:
		return rc.IsBusy
	case ConditionAfterHours:
		return rc.IsOffline
	case ConditionVIP:
		return rc.IsVIP
	case ConditionNewCaller:
		return rc.IsNewCaller
	case ConditionAlways, ConditionDefault:
		return true
	default:
		return false
	}
}

func orderRules(in []Rule) []Rule {
	out := make([]Rule, 0, len(in))
	for _, r := range in {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Condition.catchAll() != b.Condition.catchAll() {
			return !a.Condition.catchAll()
		}
		if (a.Priority == nil) != (b.Priority == nil) {
			return a.Priority != nil
		}
		if a.Priority != nil && *a.Priority != *b.Priority {
			return *a.Priority < *b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}
