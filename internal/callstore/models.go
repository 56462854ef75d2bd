package callstore

import (
	"strings"
	"time"
)

// CallRecord is one row per placed call describing its lifecycle and outcome.
//
// Identity: CallID is an opaque string issued by the provider. Before the
// provider responds, a record is keyed provisionally by phone number and
// rekeyed once the real id is known.
//
// Merge invariant: updates never erase a previously set field with an empty
// value, and a terminal status is never downgraded to a non-terminal one.
// See Merge.
type CallRecord struct {
	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Language    string `json:"language" db:"language"`
	CallID      string `json:"call_id" db:"call_id"`

	// Status is a free-form provider-defined string; see the status
	// constants below for the values this service assigns itself.
	Status string `json:"status" db:"status"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// Call timestamps, local-zone-normalized strings (see NormalizeTime).
	CallStartTime string `json:"call_start_time" db:"call_start_time"`
	CallEndTime   string `json:"call_end_time" db:"call_end_time"`

	Cost         float64 `json:"cost" db:"cost"`
	ErrorMessage string  `json:"error_message" db:"error_message"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PendingCallID is the sentinel identity before the provider assigns one.
const PendingCallID = "N/A"

// Statuses assigned by this service (the provider reports its own vocabulary
// on top of these).
const (
	StatusInitiated      = "initiated"
	StatusEnding         = "ending"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusNotAnswered    = "not-answered"
	StatusPollingTimeout = "polling-timeout"
)

// terminalStatuses closes a record: once committed, no further status
// mutation is permitted except another terminal value (last-committed-wins).
var terminalStatuses = map[string]struct{}{
	"ended":                   {},
	StatusCompleted:           {},
	StatusFailed:              {},
	StatusNotAnswered:         {},
	"customer-did-not-answer": {},
	"voicemail":               {},
	"customer-busy":           {},
	StatusPollingTimeout:      {},
}

// IsTerminal reports whether status closes a call record.
func IsTerminal(status string) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// timeLayouts are the provider timestamp shapes we accept.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

const localTimeLayout = "2006-01-02 15:04:05"

// NormalizeTime converts a provider timestamp to the local zone in a stable
// layout. Unparseable input is kept verbatim rather than dropped; a raw
// timestamp beats an empty cell.
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Local().Format(localTimeLayout)
		}
	}
	return s
}
