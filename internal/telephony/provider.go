package telephony

import (
	"context"
	"errors"
)

// Provider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider HTTP calls outside telephony adapters.
// - The adapter never interprets status strings; deriving a final outcome
//   from status/endedReason/duration belongs to the reconciliation layer.
type Provider interface {
	Name() string

	// PlaceCall issues one outbound call. Any response other than
	// "created" is a placement failure (ErrPlacementRejected).
	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)

	// CallStatus queries the provider for the current view of a call.
	// Transport or HTTP failures return ErrStatusUnavailable: a retryable
	// miss, not a terminal outcome.
	CallStatus(ctx context.Context, callID string) (CallStatusResult, error)
}

var (
	// ErrPlacementRejected means the provider refused to place the call.
	ErrPlacementRejected = errors.New("telephony: call placement rejected")

	// ErrStatusUnavailable means no status information this round.
	ErrStatusUnavailable = errors.New("telephony: call status unavailable")
)

// PlaceCallRequest carries everything the provider needs for one call.
type PlaceCallRequest struct {
	// CustomerNumber is E.164 where possible.
	CustomerNumber string

	// FirstMessage is the opening line spoken by the assistant, already
	// resolved for the customer's language.
	FirstMessage string

	// WebhookURL and WebhookSecret close the callback authentication
	// loop: the provider echoes the secret on every webhook event.
	WebhookURL    string
	WebhookSecret string
}

// PlaceCallResult is the provider's acceptance of a placement.
type PlaceCallResult struct {
	// CallID is the provider-issued identifier for the accepted call.
	CallID string

	// HTTPStatus is the raw placement response code, kept for logging.
	HTTPStatus int
}

// CallStatusResult is one polled observation of a call.
type CallStatusResult struct {
	Status          string
	EndedReason     string
	DurationSeconds int
	Cost            float64

	// Provider event times, raw as reported (normalization happens at
	// the record store boundary).
	StartedAt string
	EndedAt   string
}
