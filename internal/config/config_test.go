package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSMTPProfiles(t *testing.T) {
	profiles, err := ParseSMTPProfiles("ssl|mail.example.com|465|true|false; starttls|mail.example.com|587|false|true;")
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, SMTPProfile{Name: "ssl", Host: "mail.example.com", Port: 465, SSL: true}, profiles[0])
	assert.Equal(t, SMTPProfile{Name: "starttls", Host: "mail.example.com", Port: 587, StartTLS: true}, profiles[1])
}

func TestParseSMTPProfiles_Invalid(t *testing.T) {
	cases := []string{
		"ssl|host|465|true",
		"ssl|host|abc|true|false",
		"ssl|host|465|maybe|false",
		"ssl|host|465|true|nope",
	}
	for _, raw := range cases {
		_, err := ParseSMTPProfiles(raw)
		assert.Error(t, err, raw)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SMTP_PROFILES", "")
	t.Setenv("NOTIFY_EMAIL_FROM", "desk@example.com")
	t.Setenv("SMTP_USERNAME", "")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Len(t, cfg.Notification.SMTPProfiles, 2)
	assert.Equal(t, 465, cfg.Notification.SMTPProfiles[0].Port)
	assert.Equal(t, "desk@example.com", cfg.Notification.SMTPUsername)
	assert.Equal(t, "helpdesk:ticket-events", cfg.Redis.EventsChannel)
}

func TestLoad_RejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	_, err := Load()
	assert.Error(t, err)
}

func TestNotificationConfig_DeliveryTimeout(t *testing.T) {
	cfg := NotificationConfig{TimeoutSeconds: 5}
	assert.Equal(t, 5*time.Second, cfg.DeliveryTimeout())

	cfg.SMTPProfiles = []SMTPProfile{{Name: "ssl"}, {Name: "starttls"}}
	assert.Equal(t, 10*time.Second, cfg.DeliveryTimeout())
}
