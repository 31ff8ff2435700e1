package httpapi

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"crm-telephony/internal/calls"
	"crm-telephony/internal/routing"
	"crm-telephony/internal/telephony"
	"crm-telephony/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router is satisfied by *routing.Engine.
type Router interface {
	Route(ctx context.Context, ev calls.Event) (routing.Decision, error)
}

// DecisionLogger is satisfied by routing.AuditAdapter.
type DecisionLogger interface {
	LogDecision(ctx context.Context, provider string, ev calls.Event, d routing.Decision) error
}

// WebhookHandler is the inbound voice webhook for one vendor.
//
// Rules:
// - The vendor always gets a 200 with a renderable body, even when routing fails.
// - Auditing runs after the response is written and never affects it.
type WebhookHandler struct {
	Adapter telephony.Adapter
	Engine  Router
	Audit   DecisionLogger

	// AuditTimeout bounds each audit write. Zero uses defaultAuditTimeout.
	AuditTimeout time.Duration

	wg sync.WaitGroup
}

const defaultAuditTimeout = 5 * time.Second

func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx := routing.WithClientIP(c.Request.Context(), c.ClientIP())
	log := logger.From(ctx).With("provider", h.Adapter.Name())
	ctx = logger.With(ctx, log)

	ev, ok := h.Adapter.Parse(c.Request)
	if !ok {
		log.Debug("webhook ignored")
		write(c, h.Adapter.Ignored())
		return
	}
	log = log.With("call_id", ev.CallID)
	ctx = logger.With(ctx, log)

	d := h.route(ctx, ev)
	if d.Outcome == routing.OutcomeIgnored {
		write(c, h.Adapter.Ignored())
		h.audit(ctx, ev, d)
		return
	}

	res, err := h.render(d)
	if err != nil {
		log.Error("render failed, using fallback", "step", "render", "outcome", d.Outcome, "err", err)
		res = h.Adapter.Fallback()
	}
	write(c, res)
	h.audit(ctx, ev, d)
}

// Wait blocks until pending audit writes finish.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

func (h *WebhookHandler) route(ctx context.Context, ev calls.Event) (d routing.Decision) {
	log := logger.From(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("routing panicked", "step", "route", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			d = routing.ErrorDecision()
		}
	}()

	d, err := h.Engine.Route(ctx, ev)
	if err != nil {
		log.Error("routing failed", "step", "route", "err", err)
		return routing.ErrorDecision()
	}
	return d
}

func (h *WebhookHandler) audit(ctx context.Context, ev calls.Event, d routing.Decision) {
	if h.Audit == nil {
		return
	}
	timeout := h.AuditTimeout
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	provider := h.Adapter.Name()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.From(actx).Error("audit panicked", "panic", fmt.Sprint(r))
			}
		}()
		if err := h.Audit.LogDecision(actx, provider, ev, d); err != nil {
			logger.From(actx).Warn("audit write failed", "err", err)
		}
	}()
}

// render uses the adapter's canned responses for the default bridge and voicemail
// shapes, and renders any other sequence command by command.
func (h *WebhookHandler) render(d routing.Decision) (telephony.WireResponse, error) {
	cmds := calls.EnsureTerminal(d.Commands)
	switch {
	case d.Outcome == routing.OutcomeDefaultBridge && len(cmds) == 1 && cmds[0].Kind == calls.KindBridge:
		return h.Adapter.RingOwner(cmds[0].To, cmds[0].TimeoutSecs), nil
	case d.Action == routing.ActionVoicemail && len(cmds) == 3 &&
		cmds[0].Kind == calls.KindAnswer && cmds[1].Kind == calls.KindSpeak && cmds[2].Kind == calls.KindRecordStart:
		return h.Adapter.Voicemail(cmds[1].Text, cmds[2].MaxLengthSecs, cmds[2].Transcribe), nil
	}
	return h.Adapter.Render(h.Adapter.Normalize(cmds))
}

func write(c *gin.Context, res telephony.WireResponse) {
	c.Data(res.Status, res.ContentType, res.Body)
}
