package events

import (
	"time"

	"github.com/axis-ops/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketSynced        EventType = "ticket_synced"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Event represents a domain event emitted by the lifecycle engine. Actor is
// the username that requested the operation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Summary            string                `json:"summary"`
	UserPriority       domain.TicketPriority `json:"user_priority"`
	CalculatedPriority domain.TicketPriority `json:"calculated_priority"`
	PriorityScore      float64               `json:"priority_score"`
	NeedsReview        bool                  `json:"needs_review"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Action    domain.TicketAction `json:"action"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketSyncedPayload payload.
type TicketSyncedPayload struct {
	JiraKey string `json:"jira_key"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Status domain.TicketStatus `json:"status"`
}
