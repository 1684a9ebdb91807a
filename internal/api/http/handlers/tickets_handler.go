package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints including the status and assignment lifecycle.
type TicketsHandler struct {
	tickets   *service.TicketService
	lifecycle *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, lifecycle: lifecycle}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	departmentID, err := dto.OptionalID("department_id", req.DepartmentID)
	if err != nil {
		return err
	}
	categoryID, err := dto.OptionalID("category_id", req.CategoryID)
	if err != nil {
		return err
	}
	input := service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DepartmentID: departmentID,
		CategoryID:   categoryID,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		input.Status = &status
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := currentActor(c); err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketList(tickets)})
}

// AssignedToMe GET /tickets/assigned-to-me.
func (h *TicketsHandler) AssignedToMe(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	tickets, err := h.tickets.ListAssignedTo(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketList(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		TicketResponse: dto.NewTicketResponse(detail.Ticket),
		Messages:       dto.NewMessageList(detail.Messages),
		Attachments:    dto.NewAttachmentList(detail.Attachments),
	}})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	categoryID, err := dto.OptionalID("category_id", req.CategoryID)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), actor, id, service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  categoryID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	entries, err := h.tickets.ListHistory(c.UserContext(), id, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryList(entries)})
}

// ChangeStatus PUT /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == nil {
		return apperrors.NewValidationError("status is required", nil)
	}
	change, err := h.lifecycle.ChangeStatus(c.UserContext(), id, domain.TicketStatus(*req.Status), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusChangeResponse{
		PreviousStatus: change.PreviousStatus,
		Status:         change.NewStatus,
		StatusName:     change.StatusName,
		Ticket:         dto.NewTicketResponse(change.Ticket),
	}})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, id, ids, err := h.assigneesRequest(c)
	if err != nil {
		return err
	}
	result, err := h.lifecycle.AssignUsers(c.UserContext(), id, ids, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"assigned_count": result.Count,
		"ticket":         dto.NewTicketResponse(result.Ticket),
	}})
}

// Unassign POST /tickets/:id/unassign.
func (h *TicketsHandler) Unassign(c *fiber.Ctx) error {
	actor, id, ids, err := h.assigneesRequest(c)
	if err != nil {
		return err
	}
	result, err := h.lifecycle.UnassignUsers(c.UserContext(), id, ids, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"removed_count": result.Count,
		"ticket":        dto.NewTicketResponse(result.Ticket),
	}})
}

func (h *TicketsHandler) assigneesRequest(c *fiber.Ctx) (domain.Actor, domain.ID, []domain.ID, error) {
	actor, err := currentActor(c)
	if err != nil {
		return domain.Actor{}, "", nil, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return domain.Actor{}, "", nil, err
	}
	var req dto.AssigneesRequest
	if err := parseBody(c, &req); err != nil {
		return domain.Actor{}, "", nil, err
	}
	ids, invalid := toIDs(req.UserIDs)
	if len(invalid) > 0 {
		return domain.Actor{}, "", nil, apperrors.NewInvalidAssignees("malformed user ids", invalid)
	}
	return actor, id, ids, nil
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	limit, offset := pagination(c)
	filter := service.TicketListFilter{Limit: limit, Offset: offset}
	for key, dst := range map[string]**domain.ID{
		"created_by":    &filter.CreatedBy,
		"department_id": &filter.DepartmentID,
		"category_id":   &filter.CategoryID,
		"assignee_id":   &filter.AssigneeID,
	} {
		id, err := queryID(c, key)
		if err != nil {
			return filter, err
		}
		*dst = id
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := domain.ParseTicketStatus(part)
			if err != nil {
				return filter, apperrors.NewValidationError(err.Error(), nil)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			code, err := strconv.Atoi(strings.TrimSpace(part))
			priority := domain.TicketPriority(code)
			if err != nil || !priority.Valid() {
				return filter, apperrors.NewValidationError("invalid priority "+strconv.Quote(part), nil)
			}
			filter.Priorities = append(filter.Priorities, priority)
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	return filter, nil
}
