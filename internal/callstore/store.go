package callstore

import (
	"context"
	"errors"
)

var (
	ErrCallIDRequired = errors.New("callstore: call_id required")
	ErrPhoneRequired  = errors.New("callstore: phone_number required")
	ErrNotFound       = errors.New("callstore: record not found")
)

// Store is the keyed call-record table with idempotent merge-upsert
// semantics. Upsert must be internally serialized per invocation: it is
// called concurrently from poll goroutines and the webhook handler.
type Store interface {
	// Upsert merges rec into the record keyed by rec.CallID, inserting it
	// if absent.
	Upsert(ctx context.Context, rec CallRecord) error

	// UpsertByPhone writes a record keyed provisionally by phone number,
	// for the dispatch-time window before the provider assigns a call id.
	UpsertByPhone(ctx context.Context, rec CallRecord) error

	// Rekey moves the provisional phone-keyed record under callID. The
	// first write carrying a real call id must rekey rather than create a
	// duplicate row.
	Rekey(ctx context.Context, phoneNumber, callID string) error

	Get(ctx context.Context, callID string) (CallRecord, error)
	List(ctx context.Context) ([]CallRecord, error)
}

// Recoverable is a Store whose backing medium can be re-initialized after a
// persistence failure. Reinit gives the store a clean slate; it is the first
// half of the recover-then-retry-once policy implemented by Resilient.
type Recoverable interface {
	Store
	Reinit(ctx context.Context) error
}
