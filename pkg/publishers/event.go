package publishers

import "time"

// Settlement outcomes carried by Event.
const (
	OutcomeSuccess        = "success"
	OutcomeServerError    = "server_error"
	OutcomeTransportError = "transport_error"
)

// Event represents the payload published downstream after an in-flight
// request settles.
type Event struct {
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	Outcome    string    `json:"outcome"`
	StatusCode int       `json:"status_code,omitempty"`
	Waiters    int       `json:"waiters"`
	DurationMs int64     `json:"duration_ms"`
	SettledAt  time.Time `json:"settled_at"`
}

// NewEvent constructs an Event stamped with the current UTC time.
func NewEvent(requestID, method, url, outcome string, status, waiters int, took time.Duration) Event {
	return Event{
		RequestID:  requestID,
		Method:     method,
		URL:        url,
		Outcome:    outcome,
		StatusCode: status,
		Waiters:    waiters,
		DurationMs: took.Milliseconds(),
		SettledAt:  time.Now().UTC(),
	}
}
