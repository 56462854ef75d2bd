package audit

import "time"

// Event is an immutable, append-only operational trail record.
//
// Invariants:
// - Events are never updated or deleted.
// - Trail capture is best-effort; do not block call flows on audit failures.

type Event struct {
	ID string `json:"id"`

	// Type indicates the business category of the trail record.
	Type EventType `json:"type"`

	// Actor is whoever caused the event: the operator account for API
	// actions, "webhook" or "poller" for provider-driven ones.
	Actor string `json:"actor,omitempty"`

	// Target identifiers (optional, depending on the event type).
	CallID      string `json:"call_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeCampaignTriggered EventType = "campaign_triggered"
	EventTypeCallPlaced        EventType = "call_placed"
	EventTypePlacementFailed   EventType = "placement_failed"
	EventTypeWebhookReceived   EventType = "webhook_received"
	EventTypeCampaignSettled   EventType = "campaign_settled"
)
