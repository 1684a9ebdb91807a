package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

// ErrMailDisabled is returned by Probe when delivery is switched off or unconfigured.
var ErrMailDisabled = errors.New("mail delivery disabled")

// Mail is a plain-text message.
type Mail struct {
	To      []string
	Subject string
	Body    string
}

// Mailer sends mail and can check reachability of its SMTP endpoints.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
	Probe(ctx context.Context) ([]ProbeResult, error)
	Status() Status
}

// Status describes the mail configuration without exposing credentials.
type Status struct {
	Enabled            bool     `json:"enabled"`
	Sender             string   `json:"sender"`
	Username           string   `json:"username"`
	PasswordConfigured bool     `json:"password_configured"`
	Profiles           []string `json:"profiles"`
}

// ProbeResult reports whether one SMTP profile accepted a connection.
type ProbeResult struct {
	Profile string `json:"profile"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type transport interface {
	send(ctx context.Context, profile config.SMTPProfile, msg *mail.Msg) error
	dial(ctx context.Context, profile config.SMTPProfile) error
}

// SMTPMailer delivers through the first SMTP profile that works.
type SMTPMailer struct {
	cfg       config.NotificationConfig
	logger    *zap.Logger
	transport transport
}

// NewSMTPMailer builds a mailer from notification config.
func NewSMTPMailer(cfg config.NotificationConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger, transport: goMailTransport{cfg: cfg}}
}

// Enabled reports whether there is enough configuration to attempt delivery.
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Enabled && len(m.cfg.SMTPProfiles) > 0 && m.cfg.SMTPPassword != ""
}

// Status reports the sender and the configured profiles.
func (m *SMTPMailer) Status() Status {
	names := make([]string, 0, len(m.cfg.SMTPProfiles))
	for _, p := range m.cfg.SMTPProfiles {
		names = append(names, p.Name)
	}
	return Status{
		Enabled:            m.Enabled(),
		Sender:             m.cfg.EmailFrom,
		Username:           m.cfg.SMTPUsername,
		PasswordConfigured: m.cfg.SMTPPassword != "",
		Profiles:           names,
	}
}

// Send tries each profile in order and stops at the first success.
// When delivery is disabled the mail is dropped and nil is returned.
func (m *SMTPMailer) Send(ctx context.Context, mm Mail) error {
	if !m.Enabled() {
		m.logger.Debug("mail delivery disabled; dropping message", zap.String("subject", mm.Subject))
		return nil
	}
	recipients := cleanRecipients(mm.To)
	if len(recipients) == 0 {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.EmailFrom); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.cfg.EmailFrom, err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(mm.Subject)
	msg.SetBodyString(mail.TypeTextPlain, mm.Body)

	var errs []error
	for _, profile := range m.cfg.SMTPProfiles {
		err := m.transport.send(ctx, profile, msg)
		if err == nil {
			m.logger.Info("mail sent",
				zap.String("profile", profile.Name),
				zap.Strings("to", recipients),
				zap.String("subject", mm.Subject))
			return nil
		}
		m.logger.Warn("smtp profile failed",
			zap.String("profile", profile.Name),
			zap.String("host", profile.Host),
			zap.Int("port", profile.Port),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", profile.Name, err))
	}
	return fmt.Errorf("all smtp profiles failed: %w", errors.Join(errs...))
}

// Probe dials every profile and reports the outcome of each.
func (m *SMTPMailer) Probe(ctx context.Context) ([]ProbeResult, error) {
	if !m.Enabled() {
		return nil, ErrMailDisabled
	}
	results := make([]ProbeResult, 0, len(m.cfg.SMTPProfiles))
	for _, profile := range m.cfg.SMTPProfiles {
		res := ProbeResult{Profile: profile.Name, Host: profile.Host, Port: profile.Port, OK: true}
		if err := m.transport.dial(ctx, profile); err != nil {
			res.OK = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

// CheckRecipients dedupes the list and separates addresses that cannot be used as RCPT TO.
func CheckRecipients(to []string) (valid, invalid []string) {
	scratch := mail.NewMsg()
	for _, addr := range cleanRecipients(to) {
		if err := scratch.AddTo(addr); err != nil {
			invalid = append(invalid, addr)
			continue
		}
		valid = append(valid, addr)
	}
	return valid, invalid
}

func cleanRecipients(to []string) []string {
	seen := make(map[string]struct{}, len(to))
	out := make([]string, 0, len(to))
	for _, addr := range to {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

type goMailTransport struct {
	cfg config.NotificationConfig
}

func (t goMailTransport) client(profile config.SMTPProfile) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(profile.Port),
		mail.WithTimeout(t.cfg.Timeout()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.cfg.SMTPUsername),
		mail.WithPassword(t.cfg.SMTPPassword),
	}
	switch {
	case profile.SSL:
		opts = append(opts, mail.WithSSL())
	case profile.StartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return mail.NewClient(profile.Host, opts...)
}

func (t goMailTransport) send(ctx context.Context, profile config.SMTPProfile, msg *mail.Msg) error {
	c, err := t.client(profile)
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, msg)
}

func (t goMailTransport) dial(ctx context.Context, profile config.SMTPProfile) error {
	c, err := t.client(profile)
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return err
	}
	return c.Close()
}
