package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	UpdateMetadata(ctx context.Context, attachment *domain.Attachment) error
	Delete(ctx context.Context, id domain.ID) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID domain.ID) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	db DB
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentSelect = `SELECT id, ticket_id, uploaded_by, file_name, storage_key, file_extension, mime_type, size_bytes, created_at FROM attachments`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (id, ticket_id, uploaded_by, file_name, storage_key, file_extension, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	if attachment.ID.IsZero() {
		attachment.ID = domain.NewID()
	}
	return r.db.QueryRow(ctx, query,
		string(attachment.ID),
		string(attachment.TicketID),
		string(attachment.UploadedBy),
		attachment.FileName,
		attachment.StorageKey,
		attachment.FileExtension,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.CreatedAt)
}

// UpdateMetadata rewrites the descriptive columns. The stored blob is untouched.
func (r *attachmentRepository) UpdateMetadata(ctx context.Context, attachment *domain.Attachment) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE attachments SET file_name=$1, file_extension=$2, mime_type=$3 WHERE id=$4`,
		attachment.FileName, attachment.FileExtension, attachment.MimeType, string(attachment.ID))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id=$1`, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Attachment, error) {
	return scanAttachment(r.db.QueryRow(ctx, attachmentSelect+` WHERE id=$1`, string(id)))
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID domain.ID) ([]domain.Attachment, error) {
	rows, err := r.db.Query(ctx, attachmentSelect+` WHERE ticket_id=$1 ORDER BY created_at ASC`, string(ticketID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *attachment)
	}
	return result, rows.Err()
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var (
		attachment               domain.Attachment
		id, ticketID, uploadedBy string
	)
	if err := row.Scan(
		&id,
		&ticketID,
		&uploadedBy,
		&attachment.FileName,
		&attachment.StorageKey,
		&attachment.FileExtension,
		&attachment.MimeType,
		&attachment.SizeBytes,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	attachment.ID = domain.ID(id)
	attachment.TicketID = domain.ID(ticketID)
	attachment.UploadedBy = domain.ID(uploadedBy)
	return &attachment, nil
}
