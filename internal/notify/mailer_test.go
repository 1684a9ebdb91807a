package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/spec-kit/helpdesk/internal/config"
)

type scriptedTransport struct {
	failures map[string]error
	sent     []string
	dialed   []string
}

func (s *scriptedTransport) send(_ context.Context, profile config.SMTPProfile, _ *mail.Msg) error {
	s.sent = append(s.sent, profile.Name)
	return s.failures[profile.Name]
}

func (s *scriptedTransport) dial(_ context.Context, profile config.SMTPProfile) error {
	s.dialed = append(s.dialed, profile.Name)
	return s.failures[profile.Name]
}

func testConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:      true,
		EmailFrom:    "desk@example.com",
		SMTPUsername: "desk@example.com",
		SMTPPassword: "secret",
		SMTPProfiles: []config.SMTPProfile{
			{Name: "ssl", Host: "mail.example.com", Port: 465, SSL: true},
			{Name: "starttls", Host: "mail.example.com", Port: 587, StartTLS: true},
		},
	}
}

func newTestMailer(cfg config.NotificationConfig, tr *scriptedTransport) *SMTPMailer {
	m := NewSMTPMailer(cfg, nil)
	m.transport = tr
	return m
}

func TestSend_FallsBackToNextProfile(t *testing.T) {
	tr := &scriptedTransport{failures: map[string]error{"ssl": errors.New("connection refused")}}
	m := newTestMailer(testConfig(), tr)

	err := m.Send(context.Background(), Mail{To: []string{"a@example.com"}, Subject: "hi", Body: "body"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ssl", "starttls"}, tr.sent)
}

func TestSend_StopsAtFirstSuccess(t *testing.T) {
	tr := &scriptedTransport{}
	m := newTestMailer(testConfig(), tr)

	require.NoError(t, m.Send(context.Background(), Mail{To: []string{"a@example.com"}, Subject: "hi"}))
	assert.Equal(t, []string{"ssl"}, tr.sent)
}

func TestSend_AllProfilesFail(t *testing.T) {
	tr := &scriptedTransport{failures: map[string]error{
		"ssl":      errors.New("refused"),
		"starttls": errors.New("auth failed"),
	}}
	m := newTestMailer(testConfig(), tr)

	err := m.Send(context.Background(), Mail{To: []string{"a@example.com"}, Subject: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.Contains(t, err.Error(), "auth failed")
}

func TestSend_SkipsWhenUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.SMTPPassword = ""
	tr := &scriptedTransport{}
	m := newTestMailer(cfg, tr)

	assert.False(t, m.Enabled())
	assert.NoError(t, m.Send(context.Background(), Mail{To: []string{"a@example.com"}}))
	assert.Empty(t, tr.sent)

	_, err := m.Probe(context.Background())
	assert.ErrorIs(t, err, ErrMailDisabled)
}

func TestSend_NoRecipients(t *testing.T) {
	tr := &scriptedTransport{}
	m := newTestMailer(testConfig(), tr)

	assert.NoError(t, m.Send(context.Background(), Mail{To: []string{" ", ""}}))
	assert.Empty(t, tr.sent)
}

func TestProbe_ReportsEveryProfile(t *testing.T) {
	tr := &scriptedTransport{failures: map[string]error{"ssl": errors.New("timeout")}}
	m := newTestMailer(testConfig(), tr)

	results, err := m.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Equal(t, "timeout", results[0].Error)
	assert.True(t, results[1].OK)
	assert.Equal(t, 587, results[1].Port)
	assert.Equal(t, []string{"ssl", "starttls"}, tr.dialed)
}

func TestCleanRecipients(t *testing.T) {
	got := cleanRecipients([]string{"A@example.com", "a@example.com ", "", "b@example.com"})
	assert.Equal(t, []string{"A@example.com", "b@example.com"}, got)
}

func TestCheckRecipients(t *testing.T) {
	valid, invalid := CheckRecipients([]string{"a@example.com", " A@example.com", "not an address", ""})
	assert.Equal(t, []string{"a@example.com"}, valid)
	assert.Equal(t, []string{"not an address"}, invalid)
}

func TestStatus_HidesPassword(t *testing.T) {
	st := newTestMailer(testConfig(), &scriptedTransport{}).Status()
	assert.True(t, st.Enabled)
	assert.True(t, st.PasswordConfigured)
	assert.Equal(t, "desk@example.com", st.Sender)
	assert.Equal(t, []string{"ssl", "starttls"}, st.Profiles)

	cfg := testConfig()
	cfg.SMTPPassword = ""
	st = newTestMailer(cfg, &scriptedTransport{}).Status()
	assert.False(t, st.Enabled)
	assert.False(t, st.PasswordConfigured)
}
