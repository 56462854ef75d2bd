package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voice-campaign-platform/internal/audit"
	"voice-campaign-platform/internal/callstore"
	"voice-campaign-platform/internal/reconcile"
	"voice-campaign-platform/internal/telephony"
)

// ReportDeliverer delivers the end-of-campaign call report. A nil deliverer
// disables delivery.
type ReportDeliverer interface {
	Deliver(ctx context.Context) error
}

// Dispatcher places one call per roster entry and hands each accepted call
// to the reconciliation coordinator. Placement is sequential; a failed entry
// never aborts the rest of the roster.
type Dispatcher struct {
	provider      telephony.Provider
	store         callstore.Store
	coord         *reconcile.Coordinator
	roster        *RosterIndex
	webhookURL    string
	webhookSecret string
	settleTimeout time.Duration
	reporter      ReportDeliverer
	trail         *audit.Service
	log           *slog.Logger

	// serialises campaigns: a second trigger while one is running is rejected
	mu      sync.Mutex
	running bool
}

func NewDispatcher(
	provider telephony.Provider,
	store callstore.Store,
	coord *reconcile.Coordinator,
	roster *RosterIndex,
	webhookURL, webhookSecret string,
	settleTimeout time.Duration,
	reporter ReportDeliverer,
	trail *audit.Service,
	log *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		provider:      provider,
		store:         store,
		coord:         coord,
		roster:        roster,
		webhookURL:    webhookURL,
		webhookSecret: webhookSecret,
		settleTimeout: settleTimeout,
		reporter:      reporter,
		trail:         trail,
		log:           log,
	}
}

var ErrCampaignRunning = fmt.Errorf("a campaign is already running")

// Run dispatches the roster and starts the settle phase in the background.
// The returned lines describe each placement attempt, one per entry. ctx
// must outlive the HTTP request that triggered the campaign.
func (d *Dispatcher) Run(ctx context.Context, entries []Entry) ([]string, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil, ErrCampaignRunning
	}
	d.running = true
	d.mu.Unlock()

	lines := d.Dispatch(ctx, entries)

	go func() {
		defer func() {
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
		}()
		d.Settle(ctx)
	}()

	return lines, nil
}

// Dispatch places the calls. For every entry it first commits an initiated
// record keyed by phone number, so the record exists even when the provider
// assigns the call id late or not at all.
func (d *Dispatcher) Dispatch(ctx context.Context, entries []Entry) []string {
	d.roster.Set(entries)
	d.trail.LogCampaignTriggered(ctx, "operator", len(entries))

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := d.dispatchOne(ctx, e)
		lines = append(lines, line)
	}
	return lines
}

func (d *Dispatcher) dispatchOne(ctx context.Context, e Entry) string {
	rec := callstore.CallRecord{
		Name:        e.Name,
		PhoneNumber: e.Phone,
		Language:    e.Language,
		Status:      callstore.StatusInitiated,
	}
	if err := d.store.UpsertByPhone(ctx, rec); err != nil {
		d.log.Error("initiated record write failed", "phone", e.Phone, "error", err)
	}

	res, err := d.provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		CustomerNumber: e.Phone,
		FirstMessage:   FirstMessage(e.Language),
		WebhookURL:     d.webhookURL,
		WebhookSecret:  d.webhookSecret,
	})
	if err != nil {
		d.log.Error("call placement failed", "phone", e.Phone, "error", err)
		failed := callstore.CallRecord{
			Name:         e.Name,
			PhoneNumber:  e.Phone,
			Language:     e.Language,
			Status:       callstore.StatusFailed,
			ErrorMessage: err.Error(),
		}
		if serr := d.store.UpsertByPhone(ctx, failed); serr != nil {
			d.log.Error("failed record write failed", "phone", e.Phone, "error", serr)
		}
		d.trail.LogPlacementFailed(ctx, e.Phone, err.Error())
		return fmt.Sprintf("Called %s in %s: error (%v)", e.Phone, LanguageName(e.Language), err)
	}

	if err := d.store.Rekey(ctx, e.Phone, res.CallID); err != nil {
		d.log.Error("record rekey failed", "phone", e.Phone, "call_id", res.CallID, "error", err)
	}
	d.coord.Track(ctx, res.CallID)
	d.trail.LogCallPlaced(ctx, res.CallID, e.Phone)

	d.log.Info("call placed", "phone", e.Phone, "call_id", res.CallID, "language", e.Language)
	return fmt.Sprintf("Called %s in %s: %d", e.Phone, LanguageName(e.Language), res.HTTPStatus)
}

// Settle waits for every tracked call to reach a terminal state, bounded by
// the configured settle timeout, then delivers the report.
func (d *Dispatcher) Settle(ctx context.Context) {
	settled := d.coord.WaitSettled(ctx, d.settleTimeout)
	if settled {
		d.log.Info("campaign settled", "active_calls", 0)
	} else {
		d.log.Warn("campaign settle timeout", "active_calls", d.coord.ActiveCalls())
	}
	d.trail.LogCampaignSettled(ctx, settled, d.coord.ActiveCalls())

	if d.reporter == nil {
		return
	}
	if err := d.reporter.Deliver(ctx); err != nil {
		d.log.Error("report delivery failed", "error", err)
	}
}
