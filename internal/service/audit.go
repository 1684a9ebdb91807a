package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// auditTrail writes history entries and publishes events after a committed write.
// Failures are logged and never surface to the caller.
type auditTrail struct {
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func newAuditTrail(history repository.TicketHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *auditTrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditTrail{history: history, dispatcher: dispatcher, logger: logger}
}

func (a *auditTrail) record(ctx context.Context, actorID, ticketID domain.ID, change domain.TicketChangeType, oldValue, newValue map[string]any) {
	if a.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: actorID,
		ChangeType:  change,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := a.history.Create(ctx, entry); err != nil {
		a.logger.Warn("ticket history write failed",
			zap.String("ticket_id", ticketID.String()),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func (a *auditTrail) publish(ctx context.Context, eventType events.EventType, actorID, ticketID domain.ID, payload any) {
	if a.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID.String(),
		ActorID:   actorID.String(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := a.dispatcher.Publish(ctx, event); err != nil {
		a.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID.String()),
			zap.Error(err))
	}
}

func idStrings(ids []domain.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
