package service

import (
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// relation is a bit set of the ways an actor can relate to a ticket.
type relation uint8

const (
	relCreator relation = 1 << iota
	relAssignee
	relDepartment
)

var relationNames = []struct {
	rel  relation
	name string
}{
	{relCreator, "the ticket creator"},
	{relAssignee, "an assigned member"},
	{relDepartment, "a member of the ticket's department"},
}

func (r relation) describe() string {
	parts := make([]string, 0, 3)
	for _, rn := range relationNames {
		if r&rn.rel != 0 {
			parts = append(parts, rn.name)
		}
	}
	return strings.Join(parts, " or ")
}

// statusGuards maps each target status to the relationships that may move a ticket into it.
// Role never overrides this table.
var statusGuards = map[domain.TicketStatus]relation{
	domain.TicketStatusCancelled:  relCreator,
	domain.TicketStatusOpen:       relCreator,
	domain.TicketStatusInProgress: relAssignee,
	domain.TicketStatusOnHold:     relCreator | relAssignee,
	domain.TicketStatusInReview:   relAssignee,
	domain.TicketStatusCompleted:  relCreator | relDepartment,
}

// relationsOf resolves every relationship the actor holds on the ticket.
func relationsOf(ticket *domain.Ticket, actor domain.Actor) relation {
	var rel relation
	if ticket.IsCreator(actor.ID) {
		rel |= relCreator
	}
	if ticket.IsAssigned(actor.ID) {
		rel |= relAssignee
	}
	if domain.SameDepartment(actor.DepartmentID, ticket.DepartmentID) {
		rel |= relDepartment
	}
	return rel
}
