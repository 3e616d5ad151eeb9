// Package poller runs the status poll loop: fetch the latest submissions,
// detect a status change, deliver it, and advance the watermark only after a
// confirmed delivery.
//
// The loop is strictly sequential. At most one request and one send are in
// flight, and State is only touched by the goroutine running Run.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"hwbot/internal/homework"
	"hwbot/internal/schedule"
	"hwbot/internal/storage"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

// Fetcher returns the raw status answer for submissions updated since from.
type Fetcher interface {
	FetchLatest(ctx context.Context, from int64) (json.RawMessage, error)
}

// Auditor records delivered messages. Failures never affect State.
type Auditor interface {
	AppendDelivery(ctx context.Context, d storage.Delivery) error
}

// Config names the chat that receives notifications and the poll period.
type Config struct {
	Target   kit.ChatTarget
	Schedule schedule.Spec
}

// Option customizes a Poller built by New.
type Option func(*Poller)

// WithAuditor records every delivery.
func WithAuditor(a Auditor) Option { return func(p *Poller) { p.audit = a } }

// WithCycleHook is called after every cycle, from the loop goroutine.
func WithCycleHook(fn func(Result)) Option { return func(p *Poller) { p.onCycle = fn } }

// WithClock replaces time.Now and the inter-cycle sleep. Tests only.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithInitialState seeds the poll state. Tests only.
func WithInitialState(s State) Option { return func(p *Poller) { p.state = s } }

// Poller owns the poll state and the loop that advances it.
type Poller struct {
	fetcher Fetcher
	sender  kit.Sender
	target  kit.ChatTarget
	log     logx.Logger

	spec atomic.Pointer[schedule.Spec]

	audit   Auditor
	onCycle func(Result)
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	// state is owned by the loop goroutine.
	state State
}

// New builds a Poller with a zero State. A zero Schedule falls back to 600s.
func New(cfg Config, f Fetcher, s kit.Sender, log logx.Logger, opts ...Option) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	p := &Poller{
		fetcher: f,
		sender:  s,
		target:  cfg.Target,
		log:     log,
		now:     time.Now,
		sleep:   sleepCtx,
	}
	spec := cfg.Schedule
	if spec.Every <= 0 && spec.Kind == schedule.KindInterval {
		spec = schedule.MustParse("600s")
	}
	p.spec.Store(&spec)
	for _, o := range opts {
		o(p)
	}
	return p
}

// State returns a copy of the poll state. Call it from the loop goroutine
// (cycle hooks) or after Run returned.
func (p *Poller) State() State { return p.state }

// SetSchedule swaps the poll period; it applies from the next wait.
func (p *Poller) SetSchedule(spec schedule.Spec) { p.spec.Store(&spec) }

func (p *Poller) Schedule() schedule.Spec { return *p.spec.Load() }

// Notify delivers text to the chat once. A failed send is logged and
// reported as false; it is never retried here.
func (p *Poller) Notify(ctx context.Context, text string) bool {
	if _, err := p.sender.SendText(ctx, p.target, text, &kit.SendOptions{DisablePreview: true, Truncate: true}); err != nil {
		p.log.Error("message delivery failed", logx.Int64("chat_id", p.target.ChatID), logx.Err(err))
		return false
	}
	p.log.Debug("message delivered", logx.String("text", text))
	return true
}

// Run polls until ctx is done. Errors never stop the loop; every branch
// ends in the same wait.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("polling started", logx.String("period", p.Schedule().String()))
	for {
		res := p.Cycle(ctx)
		if p.onCycle != nil {
			p.onCycle(res)
		}
		if ctx.Err() != nil {
			break
		}

		wait := p.Schedule().Delay(p.now())
		p.log.Debug("waiting for next poll", logx.Duration("wait", wait))
		if err := p.sleep(ctx, wait); err != nil {
			break
		}
	}
	p.log.Info("polling stopped", logx.Int64("watermark", p.state.Watermark))
	return nil
}

// Cycle performs one fetch → validate → notify step.
func (p *Poller) Cycle(ctx context.Context) (res Result) {
	id := uuid.NewString()
	log := p.log.With(logx.String("cycle", id))

	defer func() {
		if r := recover(); r != nil {
			log.Error("poll cycle panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			res = p.escalate(ctx, log, id, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	res, err := p.poll(ctx, log, id)
	if err == nil {
		return res
	}
	if ctx.Err() != nil {
		// Shutting down: the failure is most likely the cancellation itself.
		return Result{CycleID: id, Outcome: OutcomeFailed, Kind: homework.Classify(err), Err: err}
	}

	switch kind := homework.Classify(err); kind {
	case homework.KindEmptyPayload:
		log.Error("status api returned an empty payload", logx.Err(err))
		return Result{CycleID: id, Outcome: OutcomeEmptyPayload, Kind: kind, Err: err}
	default:
		return p.escalate(ctx, log, id, err)
	}
}

// poll returns a finished Result, or an error for Cycle to dispatch.
func (p *Poller) poll(ctx context.Context, log logx.Logger, id string) (Result, error) {
	body, err := p.fetcher.FetchLatest(ctx, p.state.Watermark)
	if err != nil {
		return Result{}, err
	}
	log.Debug("validating status answer", logx.Int("bytes", len(body)))

	resp, err := homework.ValidateResponse(body)
	if err != nil {
		return Result{}, err
	}
	if len(resp.Homeworks) == 0 {
		log.Debug("no changes")
		return Result{CycleID: id, Outcome: OutcomeNoChanges}, nil
	}

	msg, err := homework.ExtractStatusMessage(resp.Homeworks[0])
	if err != nil {
		return Result{}, err
	}
	if p.state.seen(msg) {
		log.Debug("status unchanged")
		return Result{CycleID: id, Outcome: OutcomeUnchanged, Message: msg}, nil
	}

	if !p.Notify(ctx, msg) {
		return Result{CycleID: id, Outcome: OutcomeDeliveryFailed, Message: msg}, nil
	}
	if resp.HasCurrentDate {
		p.state.Watermark = resp.CurrentDate
	}
	p.state.remember(msg)
	p.record(ctx, log, id, storage.KindStatus, msg)
	log.Info("status change delivered", logx.Int64("watermark", p.state.Watermark))
	return Result{CycleID: id, Outcome: OutcomeNotified, Message: msg, Delivered: true}, nil
}

// escalate logs err and sends its text to the chat unless the same text was
// the last thing delivered. Delivery failures are swallowed.
func (p *Poller) escalate(ctx context.Context, log logx.Logger, id string, err error) Result {
	kind := homework.Classify(err)
	log.Error("poll cycle failed", logx.String("kind", kind.String()), logx.Err(err))

	res := Result{CycleID: id, Outcome: OutcomeFailed, Kind: kind, Err: err, Message: err.Error()}
	if p.state.seen(res.Message) {
		log.Debug("error already reported")
		return res
	}
	if p.Notify(ctx, res.Message) {
		p.state.remember(res.Message)
		p.record(ctx, log, id, storage.KindError, res.Message)
		res.Delivered = true
	}
	return res
}

func (p *Poller) record(ctx context.Context, log logx.Logger, id, kind, text string) {
	if p.audit == nil {
		return
	}
	err := p.audit.AppendDelivery(ctx, storage.Delivery{
		At:        p.now(),
		CycleID:   id,
		Kind:      kind,
		ChatID:    p.target.ChatID,
		Watermark: p.state.Watermark,
		Text:      text,
	})
	if err != nil {
		log.Warn("delivery audit failed", logx.Err(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
