package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows outside the status and assignment lifecycle.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	history     repository.TicketHistoryRepository
	audit       *auditTrail
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	DepartmentRepo repository.DepartmentRepository
	CategoryRepo   repository.CategoryRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	DepartmentID *domain.ID
	CategoryID   *domain.ID
}

// TicketUpdateInput lists the fields a creator may edit; nil means unchanged.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	CategoryID  *domain.ID
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	CreatedBy    *domain.ID
	DepartmentID *domain.ID
	CategoryID   *domain.ID
	AssigneeID   *domain.ID
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	Limit        int
	Offset       int
}

// TicketDetail is a ticket with its conversation and files.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Messages    []domain.Message
	Attachments []domain.Attachment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		departments: deps.DepartmentRepo,
		categories:  deps.CategoryRepo,
		history:     deps.HistoryRepo,
		audit:       newAuditTrail(deps.HistoryRepo, deps.Dispatcher, deps.Logger),
	}
}

// CreateTicket opens a ticket on behalf of the actor, who becomes its creator.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	status := domain.TicketStatusOpen
	if input.Status != nil {
		status = *input.Status
	}
	if !status.Valid() {
		return nil, apperrors.NewInvalidStateCode(int(status))
	}
	if status.IsTerminal() {
		return nil, apperrors.NewValidationError("a ticket cannot be created in a terminal status", map[string]any{"status": status.String()})
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != nil {
		priority = *input.Priority
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": int(priority)})
	}

	if err := ensureDepartmentExists(ctx, s.departments, input.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Status:        status,
		Priority:      priority,
		CategoryID:    input.CategoryID,
		CreatedBy:     actor.ID,
		DepartmentID:  input.DepartmentID,
		AssignedUsers: []domain.ID{},
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"title":    ticket.Title,
		"status":   int(ticket.Status),
		"priority": int(ticket.Priority),
	})
	payload := events.TicketCreatedPayload{
		Priority:    int(ticket.Priority),
		Title:       ticket.Title,
		Description: ticket.Description,
	}
	if ticket.DepartmentID != nil {
		payload.DepartmentID = ticket.DepartmentID.String()
	}
	s.audit.publish(ctx, events.EventTicketCreated, actor.ID, ticket.ID, payload)
	return ticket, nil
}

// ListTickets returns tickets matching the filter, most recently updated first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter(filter))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAssignedTo returns tickets the actor is assigned to.
func (s *TicketService) ListAssignedTo(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Ticket, error) {
	id := actor.ID
	return s.ListTickets(ctx, TicketListFilter{AssigneeID: &id, Limit: limit, Offset: offset})
}

// GetTicket loads a ticket with its messages and attachments.
func (s *TicketService) GetTicket(ctx context.Context, id domain.ID) (*TicketDetail, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Messages: messages, Attachments: attachments}, nil
}

// UpdateTicket edits descriptive fields. Only the creator may edit, and only while the ticket is live.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, id domain.ID, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.IsCreator(actor.ID) {
		return nil, apperrors.NewForbidden("only the ticket creator may edit this ticket")
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewTicketClosed(ticket.Status.String())
	}

	before := map[string]any{}
	after := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		if title != ticket.Title {
			before["title"], after["title"] = ticket.Title, title
			ticket.Title = title
		}
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc != ticket.Description {
			before["description"], after["description"] = ticket.Description, desc
			ticket.Description = desc
		}
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": int(*input.Priority)})
		}
		if *input.Priority != ticket.Priority {
			before["priority"], after["priority"] = int(ticket.Priority), int(*input.Priority)
			ticket.Priority = *input.Priority
		}
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		if ticket.CategoryID == nil || *ticket.CategoryID != *input.CategoryID {
			before["category_id"], after["category_id"] = optionalIDString(ticket.CategoryID), input.CategoryID.String()
			ticket.CategoryID = input.CategoryID
		}
	}
	if len(after) == 0 {
		return ticket, nil
	}

	if err := s.tickets.UpdateDetails(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket", id)
	}
	s.audit.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeDetails, before, after)
	return ticket, nil
}

// DeleteTicket removes a ticket. Restricted to super-admins and admins.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.Actor, id domain.ID) error {
	if !actor.Role.CanDelete() {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return notFoundOr(err, "ticket", id)
	}
	return nil
}

// ListHistory returns history entries for a ticket, newest first.
func (s *TicketService) ListHistory(ctx context.Context, id domain.ID, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, id, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) load(ctx context.Context, id domain.ID) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket", id)
	}
	return ticket, nil
}

func (s *TicketService) ensureCategory(ctx context.Context, id *domain.ID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("category does not exist", map[string]any{"category_id": id.String()})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func optionalIDString(id *domain.ID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
