package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Departments    *handlers.DepartmentsHandler
	Categories     *handlers.CategoriesHandler
	Tickets        *handlers.TicketsHandler
	Messages       *handlers.MessagesHandler
	Attachments    *handlers.AttachmentsHandler
	Notifications  *handlers.NotificationsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/token", cfg.Users.Token)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	admin := auth.RequireAdministrative()
	deleter := auth.RequireDeleter()

	users := protected.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Get("/colleagues", cfg.Users.Colleagues)
	users.Get("/departments/:department_id/colleagues", admin, cfg.Users.DepartmentMembers)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/", admin, cfg.Users.Create)
	users.Patch("/:id", admin, cfg.Users.Update)
	users.Post("/:id/toggle-status", admin, cfg.Users.ToggleStatus)
	users.Post("/:id/reset-password", cfg.Users.ResetPassword)
	users.Delete("/:id", deleter, cfg.Users.Delete)

	departments := protected.Group("/departments")
	departments.Get("/", cfg.Departments.List)
	departments.Get("/:id", cfg.Departments.Get)
	departments.Post("/", admin, cfg.Departments.Create)
	departments.Patch("/:id", admin, cfg.Departments.Update)
	departments.Delete("/:id", admin, cfg.Departments.Delete)

	categories := protected.Group("/categories")
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Post("/", admin, cfg.Categories.Create)
	categories.Patch("/:id", admin, cfg.Categories.Update)
	categories.Delete("/:id", admin, cfg.Categories.Delete)

	tickets := protected.Group("/tickets")
	tickets.Get("/assigned-to-me", cfg.Tickets.AssignedToMe)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Put("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/unassign", cfg.Tickets.Unassign)
	tickets.Get("/:id/messages", cfg.Messages.ListByTicket)
	tickets.Post("/:id/messages", cfg.Messages.Create)
	tickets.Get("/:id/attachments", cfg.Attachments.ListByTicket)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)

	messages := protected.Group("/messages")
	messages.Get("/:id", cfg.Messages.Get)
	messages.Patch("/:id", cfg.Messages.Update)
	messages.Delete("/:id", cfg.Messages.Delete)

	attachments := protected.Group("/attachments")
	attachments.Get("/:id", cfg.Attachments.Get)
	attachments.Get("/:id/download", cfg.Attachments.Download)
	attachments.Put("/:id", cfg.Attachments.Update)
	attachments.Delete("/:id", cfg.Attachments.Delete)

	notifications := protected.Group("/notifications", admin)
	notifications.Get("/health", cfg.Notifications.Health)
	notifications.Get("/smtp/probe", cfg.Notifications.ProbeSMTP)
	notifications.Post("/send-email", cfg.Notifications.SendEmail)
	protected.Get("/metrics", admin, cfg.Metrics.Snapshot)
}
