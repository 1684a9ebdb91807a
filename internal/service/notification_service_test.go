package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newNotificationFixture(mailer *recordingMailer) events.Dispatcher {
	inactive := member("u-gone", "gone", 12, &deptSupport)
	inactive.Active = false
	users := newMemUsers(
		member(assignee.ID, "sam", 10, &deptSupport),
		member(colleague.ID, "kim", 11, &deptSupport),
		inactive,
		member(creator.ID, "cat", 20, &deptSales),
	)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     mailer,
		UserRepo:   users,
	}).RegisterHandlers()
	return dispatcher
}

func TestNotifications_TicketCreatedMailsActiveDepartmentMembers(t *testing.T) {
	mailer := &recordingMailer{}
	dispatcher := newNotificationFixture(mailer)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticketID.String(),
		ActorID:  assignee.ID.String(),
		Payload:  events.TicketCreatedPayload{DepartmentID: deptSupport.String(), Title: "Server down", Priority: 3},
	})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"kim@example.com"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, "Server down")
	assert.Contains(t, mailer.sent[0].Body, "urgent")
}

func TestNotifications_AssignmentMailsNewAssignees(t *testing.T) {
	mailer := &recordingMailer{sendErr: errors.New("smtp unreachable")}
	dispatcher := newNotificationFixture(mailer)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID.String(),
		Payload: events.TicketAssignmentPayload{
			UserIDs: []string{assignee.ID.String(), "u-gone", "u-unknown"},
			Title:   "Server down",
		},
	})
	require.NoError(t, err, "delivery failures must not surface")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"sam@example.com"}, mailer.sent[0].To)
}

func TestNotifications_NoDepartmentNoMail(t *testing.T) {
	mailer := &recordingMailer{}
	dispatcher := newNotificationFixture(mailer)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{Title: "Orphan"},
	}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketStatusChanged,
		Payload: events.TicketStatusChangedPayload{OldStatus: 1, NewStatus: 2},
	}))
	assert.Empty(t, mailer.sent)
}

func TestProbeSMTP(t *testing.T) {
	mailer := &recordingMailer{probe: []notify.ProbeResult{{Profile: "ssl", OK: true}}}
	svc := NewNotificationService(NotificationDependencies{Mailer: mailer})

	results, err := svc.ProbeSMTP(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 1)

	mailer.probeErr = notify.ErrMailDisabled
	_, err = svc.ProbeSMTP(context.Background())
	requireCode(t, err, apperrors.CodeValidation)

	_, err = NewNotificationService(NotificationDependencies{}).ProbeSMTP(context.Background())
	requireCode(t, err, apperrors.CodeValidation)
}

func TestNotifications_DeliveryOutlivesCancelledRequest(t *testing.T) {
	mailer := &recordingMailer{}
	dispatcher := newNotificationFixture(mailer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID.String(),
		Payload:  events.TicketAssignmentPayload{UserIDs: []string{assignee.ID.String()}, Title: "Server down"},
	}))

	require.Len(t, mailer.sent, 1)
	assert.NoError(t, mailer.ctxErrs[0])
}

func TestSendEmail(t *testing.T) {
	mailer := &recordingMailer{status: notify.Status{Enabled: true}}
	svc := NewNotificationService(NotificationDependencies{Mailer: mailer})
	ctx := context.Background()

	res, err := svc.SendEmail(ctx, SendEmailInput{
		To:      []string{"ops@example.com", "OPS@example.com", "broken"},
		Subject: " Maintenance ",
		Body:    "tonight",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, res.Recipients)
	assert.Equal(t, []string{"broken"}, res.Rejected)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Maintenance", mailer.sent[0].Subject)

	_, err = svc.SendEmail(ctx, SendEmailInput{To: []string{"ops@example.com"}})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = svc.SendEmail(ctx, SendEmailInput{To: []string{"broken"}, Subject: "x"})
	requireCode(t, err, apperrors.CodeValidation)

	mailer.sendErr = errors.New("all smtp profiles failed")
	_, err = svc.SendEmail(ctx, SendEmailInput{To: []string{"ops@example.com"}, Subject: "x"})
	requireCode(t, err, apperrors.CodeInternal)

	mailer.status.Enabled = false
	_, err = svc.SendEmail(ctx, SendEmailInput{To: []string{"ops@example.com"}, Subject: "x"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestMailStatus(t *testing.T) {
	want := notify.Status{Enabled: true, Sender: "desk@example.com", PasswordConfigured: true, Profiles: []string{"ssl"}}
	svc := NewNotificationService(NotificationDependencies{Mailer: &recordingMailer{status: want}})
	assert.Equal(t, want, svc.MailStatus())

	assert.False(t, NewNotificationService(NotificationDependencies{}).MailStatus().Enabled)
}
