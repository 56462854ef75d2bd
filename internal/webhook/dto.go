package webhook

// Provider event envelope. Every event arrives as {"message": {...}} with a
// type discriminator; fields irrelevant to a given type are simply absent.

const (
	eventStatusUpdate    = "status-update"
	eventEndOfCallReport = "end-of-call-report"
	eventFunctionCall    = "function-call"

	endCallFunction = "endCall"
)

type eventEnvelope struct {
	Message eventMessage `json:"message"`
}

type eventMessage struct {
	Type   string    `json:"type"`
	Status string    `json:"status"`
	Call   eventCall `json:"call"`

	// end-of-call-report fields
	StartedAt       string  `json:"startedAt"`
	EndedAt         string  `json:"endedAt"`
	DurationSeconds float64 `json:"durationSeconds"`
	Cost            float64 `json:"cost"`
	EndedReason     string  `json:"endedReason"`

	FunctionCall *functionCall `json:"functionCall"`
}

type eventCall struct {
	ID       string        `json:"id"`
	Customer eventCustomer `json:"customer"`
}

type eventCustomer struct {
	Number string `json:"number"`
}

type functionCall struct {
	Name string `json:"name"`
}
