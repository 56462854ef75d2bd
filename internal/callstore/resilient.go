package callstore

import (
	"context"
	"log/slog"
)

// Resilient wraps a Recoverable store with the recover-once write policy:
// a failed write re-initializes the backing medium and retries exactly once.
// A second failure is logged and returned; call tracking must survive a
// storage hiccup, so callers treat the error as non-fatal.
type Resilient struct {
	inner Recoverable
	log   *slog.Logger
}

func NewResilient(inner Recoverable, log *slog.Logger) *Resilient {
	if log == nil {
		log = slog.Default()
	}
	return &Resilient{inner: inner, log: log}
}

func (s *Resilient) write(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	// Contract violations are caller bugs, not medium failures; no retry.
	switch err {
	case ErrCallIDRequired, ErrPhoneRequired, ErrNotFound:
		return err
	}

	s.log.Warn("call store write failed, reinitializing", "op", op, "err", err)
	if rerr := s.inner.Reinit(ctx); rerr != nil {
		s.log.Error("call store reinit failed", "op", op, "err", rerr)
		return err
	}
	if err = fn(); err != nil {
		s.log.Error("call store write failed after reinit", "op", op, "err", err)
		return err
	}
	return nil
}

func (s *Resilient) Upsert(ctx context.Context, rec CallRecord) error {
	return s.write(ctx, "upsert", func() error { return s.inner.Upsert(ctx, rec) })
}

func (s *Resilient) UpsertByPhone(ctx context.Context, rec CallRecord) error {
	return s.write(ctx, "upsert_by_phone", func() error { return s.inner.UpsertByPhone(ctx, rec) })
}

func (s *Resilient) Rekey(ctx context.Context, phoneNumber, callID string) error {
	return s.write(ctx, "rekey", func() error { return s.inner.Rekey(ctx, phoneNumber, callID) })
}

func (s *Resilient) Get(ctx context.Context, callID string) (CallRecord, error) {
	return s.inner.Get(ctx, callID)
}

func (s *Resilient) List(ctx context.Context) ([]CallRecord, error) {
	return s.inner.List(ctx)
}
