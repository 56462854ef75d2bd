package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voice-campaign-platform/internal/callstore"
	"voice-campaign-platform/internal/telephony"
)

// Config bounds one call's reconciliation work. A call that never produces
// a terminal signal costs at most MaxAttempts x Interval before it is
// stamped polling-timeout.
type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 60
	}
	if out.Interval <= 0 {
		out.Interval = 5 * time.Second
	}
	return out
}

// Coordinator reconciles the two observation channels for every in-flight
// call: the per-call poll loop it runs itself, and webhook events that the
// ingress feeds in through CancelPolling + the shared store.
//
// The cross-writer ordering contract: the webhook path removes the call
// from the registry before (or concurrently with) its own merge. The poll
// loop checks membership before each attempt; a check-then-act race where a
// poll writes after a concurrent webhook removal is tolerated because the
// store's terminal status is monotonic.
type Coordinator struct {
	store    callstore.Store
	provider telephony.Provider
	registry *Registry
	limiter  PollLimiter
	cfg      Config
	log      *slog.Logger

	wg sync.WaitGroup
}

func NewCoordinator(store callstore.Store, provider telephony.Provider, limiter PollLimiter, cfg Config, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:    store,
		provider: provider,
		registry: NewRegistry(),
		limiter:  limiter,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// Track registers callID and starts its poll loop as an independent task.
// It returns immediately; dispatch never waits on an individual call.
func (c *Coordinator) Track(ctx context.Context, callID string) {
	c.registry.Add(callID)
	c.wg.Add(1)
	go c.pollLoop(ctx, callID)
}

// CancelPolling removes callID from the registry, signalling its poll loop
// to stop. The webhook path must call this before merging its own event.
// Returns whether the call was still registered.
func (c *Coordinator) CancelPolling(callID string) bool {
	return c.registry.Remove(callID)
}

// ActiveCalls is the number of calls still registered for polling.
func (c *Coordinator) ActiveCalls() int {
	return c.registry.Len()
}

// WaitSettled blocks until every registered call has reached a terminal
// state (registry empty) or the deadline elapses. It reports whether the
// registry drained in time. This is the campaign settle signal; late calls
// keep polling in the background either way.
func (c *Coordinator) WaitSettled(ctx context.Context, deadline time.Duration) bool {
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		if c.registry.Len() == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case <-tick.C:
		}
	}
}

// Wait blocks until all poll loops have exited. Intended for shutdown,
// after the root context is cancelled.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) pollLoop(ctx context.Context, callID string) {
	defer c.wg.Done()
	// The loop owns registry removal on every exit path except webhook
	// cancellation, where removal already happened.
	defer c.registry.Remove(callID)

	log := c.log.With("call_id", callID)

	if c.limiter != nil {
		release, err := c.limiter.Acquire(ctx)
		if err != nil {
			log.Warn("poll slot acquire aborted", "err", err)
			return
		}
		defer release()
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.Interval):
		}

		// Webhook already closed the record; exit without writing.
		if !c.registry.Contains(callID) {
			log.Debug("polling cancelled by webhook", "attempt", attempt)
			return
		}

		res, err := c.provider.CallStatus(ctx, callID)
		if err != nil {
			// No information this round. Does not count toward a
			// terminal outcome; the attempt budget still bounds us.
			log.Debug("status query miss", "attempt", attempt, "err", err)
			continue
		}

		if res.Status != "ended" {
			if err := c.store.Upsert(ctx, callstore.CallRecord{
				CallID:        callID,
				Status:        res.Status,
				CallStartTime: callstore.NormalizeTime(res.StartedAt),
			}); err != nil {
				log.Error("progress upsert failed", "err", err)
			}
			continue
		}

		final := deriveFinalStatus(res)
		if err := c.store.Upsert(ctx, callstore.CallRecord{
			CallID:          callID,
			Status:          final,
			DurationSeconds: res.DurationSeconds,
			Cost:            res.Cost,
			CallStartTime:   callstore.NormalizeTime(res.StartedAt),
			CallEndTime:     callstore.NormalizeTime(res.EndedAt),
		}); err != nil {
			log.Error("terminal upsert failed", "status", final, "err", err)
		}
		log.Info("call settled by polling", "status", final, "attempts", attempt)
		return
	}

	// Attempt budget exhausted without a terminal report: terminal but
	// uncertain, distinct from genuine completion.
	if err := c.store.Upsert(ctx, callstore.CallRecord{
		CallID: callID,
		Status: callstore.StatusPollingTimeout,
	}); err != nil {
		log.Error("polling-timeout upsert failed", "err", err)
	}
	log.Warn("call polling exhausted", "attempts", c.cfg.MaxAttempts)
}

// deriveFinalStatus maps a terminal provider report to the record's final
// status, by priority: explicit endedReason, else not-answered on zero
// duration, else completed.
func deriveFinalStatus(res telephony.CallStatusResult) string {
	if res.EndedReason != "" {
		return res.EndedReason
	}
	if res.DurationSeconds == 0 {
		return callstore.StatusNotAnswered
	}
	return callstore.StatusCompleted
}
