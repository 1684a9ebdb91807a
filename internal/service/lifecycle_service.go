package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketStore is the persistence the lifecycle needs. Both writes are compare-and-swap.
type TicketStore interface {
	GetByID(ctx context.Context, id domain.ID) (*domain.Ticket, error)
	SaveStatus(ctx context.Context, id domain.ID, expected, next domain.TicketStatus) (*domain.Ticket, error)
	SaveAssignees(ctx context.Context, id domain.ID, expected, next []domain.ID) (*domain.Ticket, error)
}

// MembershipDirectory resolves the current members of a department.
type MembershipDirectory interface {
	MembersOfDepartment(ctx context.Context, deptID domain.ID) ([]domain.ID, error)
}

// LifecycleService owns ticket status transitions and the assignee set.
type LifecycleService struct {
	tickets TicketStore
	members MembershipDirectory
	audit   *auditTrail
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TicketStore TicketStore
	Members     MembershipDirectory
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// StatusChange reports a successful transition.
type StatusChange struct {
	PreviousStatus domain.TicketStatus
	NewStatus      domain.TicketStatus
	StatusName     string
	Ticket         *domain.Ticket
}

// AssignmentResult reports how many users were added or removed.
type AssignmentResult struct {
	Count  int
	Ticket *domain.Ticket
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets: deps.TicketStore,
		members: deps.Members,
		audit:   newAuditTrail(deps.HistoryRepo, deps.Dispatcher, deps.Logger),
	}
}

// ChangeStatus moves a ticket to target when the actor holds the relationship the target requires.
func (s *LifecycleService) ChangeStatus(ctx context.Context, ticketID domain.ID, target domain.TicketStatus, actor domain.Actor) (*StatusChange, error) {
	if !target.Valid() {
		return nil, apperrors.NewInvalidStateCode(int(target))
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewTicketClosed(ticket.Status.String())
	}
	required := statusGuards[target]
	if relationsOf(ticket, actor)&required == 0 {
		return nil, apperrors.NewForbidden(fmt.Sprintf("only %s may move this ticket to %s", required.describe(), target))
	}
	if ticket.Status == target {
		return nil, apperrors.NewNoOp(fmt.Sprintf("ticket is already %s", target))
	}

	previous := ticket.Status
	updated, err := s.tickets.SaveStatus(ctx, ticket.ID, previous, target)
	if err != nil {
		return nil, writeError(err, ticket.ID)
	}

	s.audit.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"status": int(previous)},
		map[string]any{"status": int(target)})
	s.audit.publish(ctx, events.EventTicketStatusChanged, actor.ID, ticket.ID, events.TicketStatusChangedPayload{
		OldStatus: int(previous),
		NewStatus: int(target),
		Name:      target.String(),
	})

	return &StatusChange{
		PreviousStatus: previous,
		NewStatus:      updated.Status,
		StatusName:     updated.Status.String(),
		Ticket:         updated,
	}, nil
}

func (s *LifecycleService) loadTicket(ctx context.Context, id domain.ID) (*domain.Ticket, error) {
	id = id.Canonical()
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id.String()})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// departmentMembers never caches; every call reads the directory.
func (s *LifecycleService) departmentMembers(ctx context.Context, deptID domain.ID) (domain.IDSet, error) {
	members, err := s.members.MembersOfDepartment(ctx, deptID.Canonical())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return domain.NewIDSet(members...), nil
}

func writeError(err error, ticketID domain.ID) error {
	switch {
	case errors.Is(err, repository.ErrStaleWrite):
		return apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticketID.String()})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID.String()})
	default:
		return apperrors.MapError(err)
	}
}
