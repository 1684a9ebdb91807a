package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. Codes are persisted.
type TicketStatus int

const (
	TicketStatusCancelled  TicketStatus = 0
	TicketStatusOpen       TicketStatus = 1
	TicketStatusInProgress TicketStatus = 2
	TicketStatusOnHold     TicketStatus = 3
	TicketStatusInReview   TicketStatus = 4
	TicketStatusCompleted  TicketStatus = 5
)

var ticketStatusNames = map[TicketStatus]string{
	TicketStatusCancelled:  "cancelled",
	TicketStatusOpen:       "open",
	TicketStatusInProgress: "in_progress",
	TicketStatusOnHold:     "on_hold",
	TicketStatusInReview:   "in_review",
	TicketStatusCompleted:  "completed",
}

// Valid reports whether the code is one of the six defined states.
func (s TicketStatus) Valid() bool {
	_, ok := ticketStatusNames[s]
	return ok
}

// IsTerminal is true for cancelled and completed tickets.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCancelled || s == TicketStatusCompleted
}

func (s TicketStatus) String() string {
	if name, ok := ticketStatusNames[s]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// ParseTicketStatus accepts a numeric code or a status name.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if code, err := strconv.Atoi(raw); err == nil {
		status := TicketStatus(code)
		if !status.Valid() {
			return 0, fmt.Errorf("invalid status code %d", code)
		}
		return status, nil
	}
	for status, name := range ticketStatusNames {
		if name == raw {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid status %q", raw)
}

// TicketPriority enumerates urgency.
type TicketPriority int

const (
	TicketPriorityLow    TicketPriority = 0
	TicketPriorityMedium TicketPriority = 1
	TicketPriorityHigh   TicketPriority = 2
	TicketPriorityUrgent TicketPriority = 3
)

var ticketPriorityNames = map[TicketPriority]string{
	TicketPriorityLow:    "low",
	TicketPriorityMedium: "medium",
	TicketPriorityHigh:   "high",
	TicketPriorityUrgent: "urgent",
}

func (p TicketPriority) Valid() bool {
	_, ok := ticketPriorityNames[p]
	return ok
}

func (p TicketPriority) String() string {
	if name, ok := ticketPriorityNames[p]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(p)) + ")"
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            ID
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CategoryID    *ID
	CreatedBy     ID
	DepartmentID  *ID
	AssignedUsers []ID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCreator reports whether userID opened the ticket.
func (t *Ticket) IsCreator(userID ID) bool {
	return t.CreatedBy.Canonical() == userID.Canonical()
}

// IsAssigned reports whether userID is in the assigned set.
func (t *Ticket) IsAssigned(userID ID) bool {
	userID = userID.Canonical()
	for _, id := range t.AssignedUsers {
		if id.Canonical() == userID {
			return true
		}
	}
	return false
}

// Validate rejects records whose enumerations fall outside the defined codes.
func (t *Ticket) Validate() error {
	if !t.Status.Valid() {
		return fmt.Errorf("ticket %s: invalid status code %d", t.ID, int(t.Status))
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("ticket %s: invalid priority code %d", t.ID, int(t.Priority))
	}
	if t.CreatedBy.IsZero() {
		return fmt.Errorf("ticket %s: missing creator", t.ID)
	}
	return nil
}
