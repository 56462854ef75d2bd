package callstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used by tests and local development.
// It is the reference implementation of the merge contract.
type MemoryStore struct {
	mu sync.Mutex

	byID    map[string]*CallRecord
	byPhone map[string]*CallRecord // provisional records, pre-rekey

	// Now is overridable for deterministic tests.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    map[string]*CallRecord{},
		byPhone: map[string]*CallRecord{},
		Now:     time.Now,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, rec CallRecord) error {
	if rec.CallID == "" || rec.CallID == PendingCallID {
		return ErrCallIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[rec.CallID]
	if !ok {
		existing = &CallRecord{CallID: rec.CallID}
		s.byID[rec.CallID] = existing
	}
	Merge(existing, rec, s.Now())
	return nil
}

func (s *MemoryStore) UpsertByPhone(ctx context.Context, rec CallRecord) error {
	if rec.PhoneNumber == "" {
		return ErrPhoneRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byPhone[rec.PhoneNumber]
	if !ok {
		existing = &CallRecord{PhoneNumber: rec.PhoneNumber, CallID: PendingCallID}
		s.byPhone[rec.PhoneNumber] = existing
	}
	Merge(existing, rec, s.Now())
	return nil
}

func (s *MemoryStore) Rekey(ctx context.Context, phoneNumber, callID string) error {
	if callID == "" || callID == PendingCallID {
		return ErrCallIDRequired
	}
	if phoneNumber == "" {
		return ErrPhoneRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prov, ok := s.byPhone[phoneNumber]
	if !ok {
		return ErrNotFound
	}
	delete(s.byPhone, phoneNumber)

	prov.CallID = callID
	if existing, ok := s.byID[callID]; ok {
		// A webhook landed before the rekey; keep its fresher fields.
		Merge(prov, *existing, s.Now())
	}
	s.byID[callID] = prov
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byID[callID]; ok {
		return *rec, nil
	}
	return CallRecord{}, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context) ([]CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CallRecord, 0, len(s.byID)+len(s.byPhone))
	for _, rec := range s.byID {
		out = append(out, *rec)
	}
	for _, rec := range s.byPhone {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PhoneNumber != out[j].PhoneNumber {
			return out[i].PhoneNumber < out[j].PhoneNumber
		}
		return out[i].CallID < out[j].CallID
	})
	return out, nil
}

// Reinit discards all records. Used by the recover-once write path.
func (s *MemoryStore) Reinit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = map[string]*CallRecord{}
	s.byPhone = map[string]*CallRecord{}
	return nil
}
