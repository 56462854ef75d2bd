package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for trail events.
//
// It MUST be append-only. No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// Service records the campaign trail. Callers treat it as best-effort:
// the Log helpers swallow repository errors after logging them, so a trail
// hiccup can never fail a call flow.

type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.Recent(ctx, limit)
}

func (s *Service) logBestEffort(ctx context.Context, e Event) {
	if s == nil {
		return
	}
	if err := s.Append(ctx, e); err != nil {
		s.log.Warn("trail append failed", "type", e.Type, "err", err)
	}
}

func (s *Service) LogCampaignTriggered(ctx context.Context, actor string, entries int) {
	s.logBestEffort(ctx, Event{
		Type:    EventTypeCampaignTriggered,
		Actor:   actor,
		Message: fmt.Sprintf("campaign dispatched with %d roster entries", entries),
	})
}

func (s *Service) LogCallPlaced(ctx context.Context, callID, phone string) {
	s.logBestEffort(ctx, Event{
		Type:        EventTypeCallPlaced,
		Actor:       "dispatcher",
		CallID:      callID,
		PhoneNumber: phone,
		Message:     "call placed",
	})
}

func (s *Service) LogPlacementFailed(ctx context.Context, phone, reason string) {
	s.logBestEffort(ctx, Event{
		Type:        EventTypePlacementFailed,
		Actor:       "dispatcher",
		PhoneNumber: phone,
		Message:     reason,
	})
}

func (s *Service) LogWebhookReceived(ctx context.Context, callID, eventType string) {
	s.logBestEffort(ctx, Event{
		Type:    EventTypeWebhookReceived,
		Actor:   "webhook",
		CallID:  callID,
		Message: eventType,
	})
}

func (s *Service) LogCampaignSettled(ctx context.Context, settled bool, activeCalls int) {
	msg := "all calls settled"
	if !settled {
		msg = fmt.Sprintf("settle timeout with %d calls still polling", activeCalls)
	}
	s.logBestEffort(ctx, Event{
		Type:    EventTypeCampaignSettled,
		Actor:   "dispatcher",
		Message: msg,
	})
}
