package routing

import (
	"context"

	"crm-telephony/internal/calls"
	"crm-telephony/internal/phonelines"
	"crm-telephony/pkg/logger"
)

// Context is the per-call situation rules are evaluated against. Never persisted.
type Context struct {
	IsNoAnswer  bool `json:"is_no_answer"`
	IsBusy      bool `json:"is_busy"`
	IsOffline   bool `json:"is_offline"`
	IsVIP       bool `json:"is_vip"`
	IsNewCaller bool `json:"is_new_caller"`
}

// ContextBuilder derives a Context for one call. It must not fail the call:
// implementations fall back to defaults when a signal is unavailable.
type ContextBuilder interface {
	Build(ctx context.Context, line phonelines.PhoneLine, ev calls.Event) Context
}

// FlagSource computes one boolean signal of the routing context.
type FlagSource interface {
	Flag(ctx context.Context, line phonelines.PhoneLine, ev calls.Event) (bool, error)
}

// Static is a FlagSource that always returns its value.
type Static bool

func (s Static) Flag(context.Context, phonelines.PhoneLine, calls.Event) (bool, error) {
	return bool(s), nil
}

// FlagContextBuilder takes status flags from the event and the rest from pluggable sources.
// Nil sources use the defaults: offline=false, vip=false, new caller=true.
type FlagContextBuilder struct {
	Offline   FlagSource
	VIP       FlagSource
	NewCaller FlagSource
}

func (b FlagContextBuilder) Build(ctx context.Context, line phonelines.PhoneLine, ev calls.Event) Context {
	return Context{
		IsNoAnswer:  ev.Status == calls.StatusNoAnswer,
		IsBusy:      ev.Status == calls.StatusBusy,
		IsOffline:   flag(ctx, "offline", b.Offline, false, line, ev),
		IsVIP:       flag(ctx, "vip", b.VIP, false, line, ev),
		IsNewCaller: flag(ctx, "new_caller", b.NewCaller, true, line, ev),
	}
}

func flag(ctx context.Context, name string, src FlagSource, def bool, line phonelines.PhoneLine, ev calls.Event) bool {
	if src == nil {
		return def
	}
	v, err := src.Flag(ctx, line, ev)
	if err != nil {
		logger.From(ctx).Warn("routing flag unavailable, using default",
			"flag", name,
			"default", def,
			"call_id", ev.CallID,
			"err", err,
		)
		return def
	}
	return v
}
