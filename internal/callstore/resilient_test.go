package callstore

import (
	"context"
	"errors"
	"testing"
)

// flakyStore fails a configured number of writes, then delegates to a
// MemoryStore. Reinit is counted.
type flakyStore struct {
	*MemoryStore
	failures int
	reinits  int
}

var errMediumDown = errors.New("medium unavailable")

func (f *flakyStore) Upsert(ctx context.Context, rec CallRecord) error {
	if f.failures > 0 {
		f.failures--
		return errMediumDown
	}
	return f.MemoryStore.Upsert(ctx, rec)
}

func (f *flakyStore) Reinit(ctx context.Context) error {
	f.reinits++
	return f.MemoryStore.Reinit(ctx)
}

func TestResilient_RetriesOnceAfterReinit(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 1}
	s := NewResilient(inner, nil)

	if err := s.Upsert(ctx, CallRecord{CallID: "c1", Status: StatusInitiated}); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if inner.reinits != 1 {
		t.Fatalf("expected exactly one reinit, got %d", inner.reinits)
	}
	if _, err := s.Get(ctx, "c1"); err != nil {
		t.Fatalf("record lost after recovery: %v", err)
	}
}

func TestResilient_SecondFailureIsReturnedNotRetried(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2}
	s := NewResilient(inner, nil)

	if err := s.Upsert(ctx, CallRecord{CallID: "c1"}); !errors.Is(err, errMediumDown) {
		t.Fatalf("expected medium error surfaced, got %v", err)
	}
	if inner.reinits != 1 {
		t.Fatalf("expected exactly one reinit, got %d", inner.reinits)
	}
}

func TestResilient_ContractErrorsNotRetried(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	s := NewResilient(inner, nil)

	if err := s.Upsert(ctx, CallRecord{}); !errors.Is(err, ErrCallIDRequired) {
		t.Fatalf("expected ErrCallIDRequired, got %v", err)
	}
	if inner.reinits != 0 {
		t.Fatalf("contract error should not reinit, got %d", inner.reinits)
	}
}
