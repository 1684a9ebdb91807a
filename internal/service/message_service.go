package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const messagePreviewLength = 120

// MessageService manages the conversation on a ticket.
// Messages never touch ticket status or assignees.
type MessageService struct {
	messages repository.TicketMessageRepository
	tickets  repository.TicketRepository
	audit    *auditTrail
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo repository.TicketMessageRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	return &MessageService{
		messages: deps.MessageRepo,
		tickets:  deps.TicketRepo,
		audit:    newAuditTrail(nil, deps.Dispatcher, deps.Logger),
	}
}

// AddMessage posts a message authored by the actor.
func (s *MessageService) AddMessage(ctx context.Context, actor domain.Actor, ticketID domain.ID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}

	msg := &domain.Message{TicketID: ticketID, CreatedBy: actor.ID, Body: body}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventTicketMessageAdded, actor.ID, ticketID, events.TicketMessageAddedPayload{
		MessageID:   msg.ID.String(),
		BodyPreview: stringPreview(body, messagePreviewLength),
	})
	return msg, nil
}

func (s *MessageService) ListMessages(ctx context.Context, ticketID domain.ID) ([]domain.Message, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id domain.ID) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "message", id)
	}
	return msg, nil
}

// UpdateMessage replaces the body. Only the author may edit.
func (s *MessageService) UpdateMessage(ctx context.Context, actor domain.Actor, id domain.ID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}
	msg, err := s.authored(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	msg.Body = body
	if err := s.messages.UpdateBody(ctx, msg); err != nil {
		return nil, notFoundOr(err, "message", id)
	}
	return msg, nil
}

// DeleteMessage removes a message. Only the author may delete.
func (s *MessageService) DeleteMessage(ctx context.Context, actor domain.Actor, id domain.ID) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	if err := s.messages.Delete(ctx, id); err != nil {
		return notFoundOr(err, "message", id)
	}
	return nil
}

func (s *MessageService) authored(ctx context.Context, actor domain.Actor, id domain.ID) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "message", id)
	}
	if msg.CreatedBy != actor.ID {
		return nil, apperrors.NewForbidden("only the author may change this message")
	}
	return msg, nil
}
