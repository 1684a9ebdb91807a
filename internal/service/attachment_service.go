package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AttachmentService stores files against tickets.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	tickets     repository.TicketRepository
	blobs       storage.BlobStore
	logger      *zap.Logger
}

// AttachmentDependencies bundles collaborators for the attachment service.
type AttachmentDependencies struct {
	AttachmentRepo repository.AttachmentRepository
	TicketRepo     repository.TicketRepository
	Blobs          storage.BlobStore
	Logger         *zap.Logger
}

// UploadInput describes an incoming file.
type UploadInput struct {
	TicketID domain.ID
	FileName string
	MimeType string
	Content  io.Reader
}

// AttachmentUpdate renames an attachment or corrects its content type. Nil fields are left as they are.
type AttachmentUpdate struct {
	FileName *string
	MimeType *string
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		attachments: deps.AttachmentRepo,
		tickets:     deps.TicketRepo,
		blobs:       deps.Blobs,
		logger:      logger,
	}
}

// Upload stores the content and records its metadata. The blob is removed if the record cannot be written.
func (s *AttachmentService) Upload(ctx context.Context, actor domain.Actor, in UploadInput) (*domain.Attachment, error) {
	name := strings.TrimSpace(in.FileName)
	if name == "" || in.Content == nil {
		return nil, apperrors.NewValidationError("file is required", nil)
	}
	if _, err := s.tickets.GetByID(ctx, in.TicketID); err != nil {
		return nil, notFoundOr(err, "ticket", in.TicketID)
	}

	key, size, err := s.blobs.Save(ctx, name, in.Content)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	attachment := &domain.Attachment{
		TicketID:      in.TicketID,
		UploadedBy:    actor.ID,
		FileName:      filepath.Base(name),
		StorageKey:    key,
		FileExtension: fileExtension(name),
		MimeType:      mimeType,
		SizeBytes:     size,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		s.removeBlob(ctx, key)
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

func (s *AttachmentService) ListAttachments(ctx context.Context, ticketID domain.ID) ([]domain.Attachment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}
	items, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (s *AttachmentService) GetAttachment(ctx context.Context, id domain.ID) (*domain.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "attachment", id)
	}
	return attachment, nil
}

// Open returns the attachment metadata and a reader over its content. The caller closes the reader.
func (s *AttachmentService) Open(ctx context.Context, id domain.ID) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.GetAttachment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, attachment.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, apperrors.NewNotFound("attachment content", map[string]any{"attachment_id": id.String()})
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	return attachment, rc, nil
}

// UpdateAttachment changes the display name or content type. Allowed for the uploader and administrative roles.
func (s *AttachmentService) UpdateAttachment(ctx context.Context, actor domain.Actor, id domain.ID, in AttachmentUpdate) (*domain.Attachment, error) {
	if in.FileName == nil && in.MimeType == nil {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	attachment, err := s.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if attachment.UploadedBy.Canonical() != actor.ID.Canonical() && !actor.Role.IsAdministrative() {
		return nil, apperrors.NewForbidden("only the uploader or an administrator may edit this attachment")
	}
	if in.FileName != nil {
		name := filepath.Base(strings.TrimSpace(*in.FileName))
		if name == "" || name == "." || name == "/" {
			return nil, apperrors.NewValidationError("file_name cannot be empty", nil)
		}
		attachment.FileName = name
		attachment.FileExtension = fileExtension(name)
	}
	if in.MimeType != nil {
		mimeType := strings.TrimSpace(*in.MimeType)
		if mimeType == "" {
			return nil, apperrors.NewValidationError("mime_type cannot be empty", nil)
		}
		attachment.MimeType = mimeType
	}
	if err := s.attachments.UpdateMetadata(ctx, attachment); err != nil {
		return nil, notFoundOr(err, "attachment", id)
	}
	return attachment, nil
}

// DeleteAttachment removes an attachment. Allowed for the uploader and administrative roles.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, actor domain.Actor, id domain.ID) error {
	attachment, err := s.GetAttachment(ctx, id)
	if err != nil {
		return err
	}
	if attachment.UploadedBy.Canonical() != actor.ID.Canonical() && !actor.Role.IsAdministrative() {
		return apperrors.NewForbidden("only the uploader or an administrator may delete this attachment")
	}
	if err := s.attachments.Delete(ctx, id); err != nil {
		return notFoundOr(err, "attachment", id)
	}
	s.removeBlob(ctx, attachment.StorageKey)
	return nil
}

func fileExtension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

func (s *AttachmentService) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("blob cleanup failed", zap.String("storage_key", key), zap.Error(err))
	}
}
