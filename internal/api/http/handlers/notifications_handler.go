package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
)

type sendEmailRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// NotificationsHandler exposes operational notification endpoints.
type NotificationsHandler struct {
	service *service.NotificationService
}

func NewNotificationsHandler(svc *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: svc}
}

// ProbeSMTP GET /notifications/smtp/probe.
func (h *NotificationsHandler) ProbeSMTP(c *fiber.Ctx) error {
	results, err := h.service.ProbeSMTP(c.UserContext())
	if err != nil {
		return err
	}
	ok := false
	for _, r := range results {
		ok = ok || r.OK
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reachable": ok, "profiles": results}})
}

// SendEmail POST /notifications/send-email.
func (h *NotificationsHandler) SendEmail(c *fiber.Ctx) error {
	var req sendEmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.service.SendEmail(c.UserContext(), service.SendEmailInput{To: req.To, Subject: req.Subject, Body: req.Text})
	if err != nil {
		return err
	}
	rejected := res.Rejected
	if rejected == nil {
		rejected = []string{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"emails_sent": len(res.Recipients),
		"recipients":  res.Recipients,
		"rejected":    rejected,
	}})
}

// Health GET /notifications/health.
func (h *NotificationsHandler) Health(c *fiber.Ctx) error {
	st := h.service.MailStatus()
	status := "disabled"
	if st.Enabled {
		status = "enabled"
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"status":                   status,
		"sender":                   st.Sender,
		"username":                 st.Username,
		"password_configured":      st.PasswordConfigured,
		"configurations_available": len(st.Profiles),
		"profiles":                 st.Profiles,
	}})
}
