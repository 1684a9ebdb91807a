package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets/:id", "GET", 200, time.Millisecond)
	m.RecordRequest("/tickets/:id", "GET", 200, time.Millisecond)
	m.RecordError("/tickets/:id/status", "PUT", "CONFLICT")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["GET /tickets/:id|200"])
	assert.Equal(t, int64(1), snap.Errors["PUT /tickets/:id/status|CONFLICT"])
	assert.InDelta(t, 1.0, snap.LatencyMS["GET /tickets/:id|200"], 0.001)

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLogger_RecordsStatusAfterErrorHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ok/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok/42", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["GET /ok/:id|200"])
	assert.Equal(t, int64(1), snap.Requests["GET /boom|409"])
	assert.Equal(t, 1, logs.FilterMessage("request rejected").Len())
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.AppConfig{Name: "helpdesk", Env: "production"}, config.LoggerConfig{Level: "loud"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_ConsoleDebug(t *testing.T) {
	logger, err := NewLogger(config.AppConfig{Name: "helpdesk", Env: "development"}, config.LoggerConfig{Level: "DEBUG", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
