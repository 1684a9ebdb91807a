package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// NotificationService turns domain events into email.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	users      repository.UserRepository
	logger     *zap.Logger
	timeout    time.Duration
}

// NotificationDependencies bundles collaborators for notifications.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Mailer     notify.Mailer
	UserRepo   repository.UserRepository
	Logger     *zap.Logger
	// DeliveryTimeout bounds event-triggered delivery, which runs detached from the request.
	DeliveryTimeout time.Duration
}

// SendEmailInput is an administrator-composed message.
type SendEmailInput struct {
	To      []string
	Subject string
	Body    string
}

// SendEmailResult reports who the message went to.
type SendEmailResult struct {
	Recipients []string
	Rejected   []string
}

const defaultDeliveryTimeout = 30 * time.Second

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		mailer:     deps.Mailer,
		users:      deps.UserRepo,
		logger:     logger,
		timeout:    timeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketUnassigned, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.logEvent)
}

// ProbeSMTP reports per-profile SMTP reachability.
func (n *NotificationService) ProbeSMTP(ctx context.Context) ([]notify.ProbeResult, error) {
	if n.mailer == nil {
		return nil, apperrors.NewValidationError("mail delivery is not configured", nil)
	}
	results, err := n.mailer.Probe(ctx)
	if errors.Is(err, notify.ErrMailDisabled) {
		return nil, apperrors.NewValidationError("mail delivery is not configured", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return results, nil
}

// SendEmail delivers an ad-hoc message through the SMTP fallback chain.
// Unusable addresses are skipped and reported; the call fails only when none remain.
func (n *NotificationService) SendEmail(ctx context.Context, in SendEmailInput) (*SendEmailResult, error) {
	if n.mailer == nil || !n.mailer.Status().Enabled {
		return nil, apperrors.NewValidationError("mail delivery is not configured", nil)
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	valid, invalid := notify.CheckRecipients(in.To)
	if len(valid) == 0 {
		return nil, apperrors.NewValidationError("at least one valid recipient is required", map[string]any{"rejected": invalid})
	}
	if err := n.mailer.Send(ctx, notify.Mail{To: valid, Subject: subject, Body: in.Body}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &SendEmailResult{Recipients: valid, Rejected: invalid}, nil
}

// MailStatus reports the current mail configuration.
func (n *NotificationService) MailStatus() notify.Status {
	if n.mailer == nil {
		return notify.Status{}
	}
	return n.mailer.Status()
}

// handleTicketCreated mails every active member of the ticket's department except the creator.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logEventFields(event)
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.DepartmentID == "" || n.mailer == nil {
		return nil
	}
	members, err := n.users.ListByDepartment(ctx, domain.ID(payload.DepartmentID), true)
	if err != nil {
		n.logger.Warn("load department members for notification", zap.String("ticket_id", event.TicketID), zap.Error(err))
		return nil
	}
	var to []string
	for _, u := range members {
		if u.ID.String() != event.ActorID {
			to = append(to, u.Email)
		}
	}
	n.deliver(ctx, event, notify.Mail{
		To:      to,
		Subject: fmt.Sprintf("New ticket: %s", payload.Title),
		Body: fmt.Sprintf("A new ticket was opened for your department.\n\nTitle: %s\nPriority: %s\n\n%s\n",
			payload.Title, domain.TicketPriority(payload.Priority), payload.Description),
	})
	return nil
}

// handleTicketAssigned mails the users that were just added.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logEventFields(event)
	payload, ok := event.Payload.(events.TicketAssignmentPayload)
	if !ok || len(payload.UserIDs) == 0 || n.mailer == nil {
		return nil
	}
	var to []string
	for _, raw := range payload.UserIDs {
		u, err := n.users.GetByID(ctx, domain.ID(raw))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				n.logger.Warn("load assignee for notification", zap.String("user_id", raw), zap.Error(err))
			}
			continue
		}
		if u.Active {
			to = append(to, u.Email)
		}
	}
	n.deliver(ctx, event, notify.Mail{
		To:      to,
		Subject: fmt.Sprintf("You were assigned: %s", payload.Title),
		Body:    fmt.Sprintf("You have been assigned to ticket %q (%s).\n", payload.Title, event.TicketID),
	})
	return nil
}

// deliver never fails the publishing request; delivery errors are only logged.
// The send keeps running if the request that raised the event is cancelled.
func (n *NotificationService) deliver(ctx context.Context, event events.Event, mail notify.Mail) {
	if len(mail.To) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.mailer.Send(ctx, mail); err != nil {
		n.logger.Warn("notification mail failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.String("recipients", strings.Join(mail.To, ",")),
			zap.Error(err))
	}
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logEventFields(event)
	return nil
}

func (n *NotificationService) logEventFields(event events.Event) {
	n.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
}
