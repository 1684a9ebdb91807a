package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketUnassigned    EventType = "ticket_unassigned"
	EventTicketMessageAdded  EventType = "ticket_message_added"
)

// AllEventTypes lists every type a fan-out subscriber should listen to.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketUnassigned,
	EventTicketMessageAdded,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID string `json:"department_id,omitempty"`
	Priority     int    `json:"priority"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus int    `json:"old_status"`
	NewStatus int    `json:"new_status"`
	Name      string `json:"status_name"`
}

// TicketAssignmentPayload is shared by assignment and unassignment events.
type TicketAssignmentPayload struct {
	UserIDs      []string `json:"user_ids"`
	DepartmentID string   `json:"department_id"`
	Title        string   `json:"title"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string `json:"message_id"`
	BodyPreview string `json:"body_preview"`
}
