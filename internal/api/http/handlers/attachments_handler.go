package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AttachmentsHandler handles file upload and download.
type AttachmentsHandler struct {
	service  *service.AttachmentService
	maxBytes int64
}

func NewAttachmentsHandler(svc *service.AttachmentService, maxBytes int64) *AttachmentsHandler {
	return &AttachmentsHandler{service: svc, maxBytes: maxBytes}
}

// Upload POST /tickets/:id/attachments (multipart field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticketID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" is required", nil)
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return apperrors.NewValidationError("file too large", map[string]any{"max_bytes": h.maxBytes})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	attachment, err := h.service.Upload(c.UserContext(), actor, service.UploadInput{
		TicketID: ticketID,
		FileName: header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
		Content:  file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// ListByTicket GET /tickets/:id/attachments.
func (h *AttachmentsHandler) ListByTicket(c *fiber.Ctx) error {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.service.ListAttachments(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAttachmentList(items)})
}

// Get GET /attachments/:id.
func (h *AttachmentsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attachment, err := h.service.GetAttachment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// Download GET /attachments/:id/download.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attachment, rc, err := h.service.Open(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(attachment.FileName))
	// fasthttp closes the stream once the body is written.
	return c.SendStream(rc, int(attachment.SizeBytes))
}

// Update PUT /attachments/:id.
func (h *AttachmentsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AttachmentUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachment, err := h.service.UpdateAttachment(c.UserContext(), actor, id, service.AttachmentUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// Delete DELETE /attachments/:id.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteAttachment(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
