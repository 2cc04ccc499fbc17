package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueMerged        EventType = "issue_merged"
	EventStatusChanged      EventType = "status_changed"
	EventCompletionMarked   EventType = "completion_marked"
	EventCompletionReminder EventType = "completion_reminder"
	EventDetailsRequested   EventType = "details_requested"
)

// Actor identifies who triggered an event.
type Actor struct {
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
}

// Event represents a post-commit domain event. Issue is a snapshot taken
// after the write.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	TicketID  string        `json:"ticket_id"`
	Actor     Actor         `json:"actor"`
	Timestamp time.Time     `json:"timestamp"`
	Issue     *domain.Issue `json:"-"`
	Payload   interface{}   `json:"payload,omitempty"`
}

// New builds an event around an issue snapshot.
func New(eventType EventType, issue *domain.Issue, actor Actor, payload interface{}) Event {
	ticketID := ""
	if issue != nil {
		ticketID = issue.TicketID
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Issue:     issue.Clone(),
		Payload:   payload,
	}
}

// IssueMergedPayload describes a duplicate folded into an existing issue.
type IssueMergedPayload struct {
	Reporter string  `json:"reporter"`
	Reason   string  `json:"reason"`
	Score    float64 `json:"score"`
}

// DetailsRequestedPayload carries the ticket ID a reporter asked about. It
// is set when no issue matched, in which case Event.Issue is nil.
type DetailsRequestedPayload struct {
	TicketID string `json:"ticket_id"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// CompletionMarkedPayload payload.
type CompletionMarkedPayload struct {
	CompletionType domain.CompletionType `json:"completion_type"`
	Completed      bool                  `json:"completed"`
}
