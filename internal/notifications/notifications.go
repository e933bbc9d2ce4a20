// Package notifications is the delivery side of the event-lifecycle reminder
// system: a durable in-app ledger (the deduplication source of truth), a
// best-effort FCM push sender, and a gateway composing the two.
//
// The ledger write is the operation of record; push is attempted regardless
// of the ledger outcome and never escalates failure.
package notifications

import "time"

// Notification kinds. The scheduler produces the two reminder kinds; the
// HTTP layer writes the others through the same gateway.
const (
	KindFeedbackReminder      = "feedback_reminder"
	KindDocumentationReminder = "documentation_reminder"
	KindRegistration          = "registration"
	KindEventStatus           = "event_status"
	KindGeneral               = "general"
)

// Notification is one ledger row as served to the in-app inbox.
type Notification struct {
	ID        int               `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Kind      string            `json:"type"`
	RelatedID *int              `json:"related_id"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
	Data      map[string]string `json:"notification_data"`
}

// Record is the payload for a ledger write.
type Record struct {
	UserID    int
	Title     string
	Body      string
	Kind      string
	RelatedID int
	Data      map[string]string
}

// Outcome reports what a single dual delivery achieved. Either half may fail
// without the other; SendOne never returns an error.
type Outcome struct {
	InApp  bool     `json:"in_app"`
	Push   bool     `json:"push"`
	Errors []string `json:"errors,omitempty"`
}

// Delivered reports whether at least one channel landed.
func (o Outcome) Delivered() bool {
	return o.InApp || o.Push
}

// BatchOutcome aggregates SendMany accounting.
type BatchOutcome struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// MulticastResult is the per-batch push accounting from the Pusher.
// InvalidTokens lists endpoints the push subsystem reported as permanently
// invalid; the gateway deactivates them as a side effect.
type MulticastResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
	Skipped       bool // push subsystem not configured
}
