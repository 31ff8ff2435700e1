package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func rule(id string, cond Condition, prio *int, created time.Time) Rule {
	return Rule{ID: id, PhoneLineID: "pl-1", Condition: cond, Priority: prio, IsActive: true, CreatedAt: created, Action: Action{Type: ActionHangup}}
}

func match(t *testing.T, rc Context, rules ...Rule) *Rule {
	t.Helper()
	m := &Matcher{Rules: NewMemoryRuleStore(rules...)}
	got, err := m.Match(context.Background(), "pl-1", rc)
	require.NoError(t, err)
	return got
}

func matchID(t *testing.T, rc Context, rules ...Rule) string {
	t.Helper()
	got := match(t, rc, rules...)
	require.NotNil(t, got)
	return got.ID
}

func TestMatcherNoRules(t *testing.T) {
	assert.Nil(t, match(t, Context{IsNoAnswer: true}))
}

func TestMatcherConditionMapping(t *testing.T) {
	cases := []struct {
		cond Condition
		rc   Context
	}{
		{ConditionNoAnswer, Context{IsNoAnswer: true}},
		{ConditionBusy, Context{IsBusy: true}},
		{ConditionAfterHours, Context{IsOffline: true}},
		{ConditionVIP, Context{IsVIP: true}},
		{ConditionNewCaller, Context{IsNewCaller: true}},
	}
	for _, tc := range cases {
		assert.NotNil(t, match(t, tc.rc, rule("r", tc.cond, nil, t0)), "%s should match", tc.cond)
		assert.Nil(t, match(t, Context{}, rule("r", tc.cond, nil, t0)), "%s should not match an empty context", tc.cond)
	}
}

func TestMatcherUnknownConditionNeverMatches(t *testing.T) {
	all := Context{IsNoAnswer: true, IsBusy: true, IsOffline: true, IsVIP: true, IsNewCaller: true}
	assert.Nil(t, match(t, all, rule("r", "full_moon", nil, t0)))
}

func TestMatcherPriorityThenCreationOrder(t *testing.T) {
	rc := Context{IsBusy: true, IsNewCaller: true}

	assert.Equal(t, "prio-1", matchID(t, rc,
		rule("late-no-prio", ConditionBusy, nil, t0.Add(-time.Hour)),
		rule("prio-2", ConditionNewCaller, intp(2), t0),
		rule("prio-1", ConditionBusy, intp(1), t0.Add(time.Hour)),
	))

	assert.Equal(t, "a", matchID(t, rc,
		rule("b", ConditionBusy, nil, t0.Add(time.Minute)),
		rule("a", ConditionNewCaller, nil, t0),
	), "earliest rule wins")

	assert.Equal(t, "y", matchID(t, rc,
		rule("z", ConditionBusy, nil, t0),
		rule("y", ConditionBusy, nil, t0),
	), "id breaks ties")
}

func TestMatcherCatchAllIsLast(t *testing.T) {
	assert.Equal(t, "specific", matchID(t, Context{IsNoAnswer: true},
		rule("catch", ConditionAlways, intp(0), t0),
		rule("specific", ConditionNoAnswer, intp(10), t0.Add(time.Hour)),
	))
	assert.Equal(t, "catch", matchID(t, Context{}, rule("catch", ConditionDefault, nil, t0)))
}

func TestMatcherSkipsInactive(t *testing.T) {
	inactive := rule("off", ConditionAlways, intp(1), t0)
	inactive.IsActive = false
	assert.Nil(t, match(t, Context{}, inactive))
}

type failingStore struct{}

func (failingStore) ListRules(context.Context, string) ([]Rule, error) {
	return nil, errors.New("db down")
}

func TestMatcherPropagatesStoreErrors(t *testing.T) {
	m := &Matcher{Rules: failingStore{}}
	_, err := m.Match(context.Background(), "pl-1", Context{})
	assert.Error(t, err)
}
