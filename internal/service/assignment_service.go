package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AssignUsers adds members of the actor's department to the ticket's assignee set.
func (s *LifecycleService) AssignUsers(ctx context.Context, ticketID domain.ID, userIDs []domain.ID, actor domain.Actor) (*AssignmentResult, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureAssigneeManager(ticket, actor); err != nil {
		return nil, err
	}
	candidates := domain.Dedupe(userIDs)
	if len(candidates) == 0 {
		return nil, apperrors.NewNoOp("no users to assign")
	}

	members, err := s.departmentMembers(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, err
	}
	var invalid []string
	for _, id := range candidates {
		if !members.Has(id) {
			invalid = append(invalid, id.String())
		}
	}
	if len(invalid) > 0 {
		return nil, apperrors.NewInvalidAssignees("users are not members of your department", invalid)
	}

	current := domain.NewIDSet(ticket.AssignedUsers...)
	var added []domain.ID
	for _, id := range candidates {
		if !current.Has(id) {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return nil, apperrors.NewNoOp("all users are already assigned to this ticket")
	}

	next := make([]domain.ID, 0, len(ticket.AssignedUsers)+len(added))
	next = append(next, ticket.AssignedUsers...)
	next = append(next, added...)
	updated, err := s.tickets.SaveAssignees(ctx, ticket.ID, ticket.AssignedUsers, next)
	if err != nil {
		return nil, writeError(err, ticket.ID)
	}

	s.audit.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeAssigned,
		map[string]any{"assigned_users": idStrings(ticket.AssignedUsers)},
		map[string]any{"assigned_users": idStrings(updated.AssignedUsers)})
	s.audit.publish(ctx, events.EventTicketAssigned, actor.ID, ticket.ID, events.TicketAssignmentPayload{
		UserIDs:      idStrings(added),
		DepartmentID: actor.DepartmentID.String(),
		Title:        updated.Title,
	})

	return &AssignmentResult{Count: len(added), Ticket: updated}, nil
}

// UnassignUsers removes ids that are both assigned and members of the actor's department.
func (s *LifecycleService) UnassignUsers(ctx context.Context, ticketID domain.ID, userIDs []domain.ID, actor domain.Actor) (*AssignmentResult, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureAssigneeManager(ticket, actor); err != nil {
		return nil, err
	}
	targets := domain.Dedupe(userIDs)
	if len(targets) == 0 {
		return nil, apperrors.NewNoOp("no users to unassign")
	}

	members, err := s.departmentMembers(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, err
	}
	current := domain.NewIDSet(ticket.AssignedUsers...)
	var invalid []string
	for _, id := range targets {
		if !current.Has(id) || !members.Has(id) {
			invalid = append(invalid, id.String())
		}
	}
	if len(invalid) > 0 {
		return nil, apperrors.NewInvalidAssignees("users are not assigned to this ticket or not members of your department", invalid)
	}

	removed := domain.NewIDSet(targets...)
	next := make([]domain.ID, 0, len(ticket.AssignedUsers))
	for _, id := range ticket.AssignedUsers {
		if !removed.Has(id) {
			next = append(next, id)
		}
	}
	updated, err := s.tickets.SaveAssignees(ctx, ticket.ID, ticket.AssignedUsers, next)
	if err != nil {
		return nil, writeError(err, ticket.ID)
	}

	s.audit.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeUnassigned,
		map[string]any{"assigned_users": idStrings(ticket.AssignedUsers)},
		map[string]any{"assigned_users": idStrings(updated.AssignedUsers)})
	s.audit.publish(ctx, events.EventTicketUnassigned, actor.ID, ticket.ID, events.TicketAssignmentPayload{
		UserIDs:      idStrings(targets),
		DepartmentID: actor.DepartmentID.String(),
		Title:        updated.Title,
	})

	return &AssignmentResult{Count: len(targets), Ticket: updated}, nil
}

// ensureAssigneeManager requires an open ticket held by the actor's own department.
func ensureAssigneeManager(ticket *domain.Ticket, actor domain.Actor) error {
	if ticket.Status.IsTerminal() {
		return apperrors.NewTicketClosed(ticket.Status.String())
	}
	if !domain.SameDepartment(actor.DepartmentID, ticket.DepartmentID) {
		return apperrors.NewForbidden("only members of the ticket's assigned department may manage its assignees")
	}
	return nil
}
