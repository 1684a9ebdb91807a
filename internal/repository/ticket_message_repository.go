package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	UpdateBody(ctx context.Context, msg *domain.Message) error
	Delete(ctx context.Context, id domain.ID) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Message, error)
	ListByTicket(ctx context.Context, ticketID domain.ID) ([]domain.Message, error)
}

type ticketMessageRepository struct {
	db DB
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(db DB) TicketMessageRepository {
	return &ticketMessageRepository{db: db}
}

const messageSelect = `SELECT id, ticket_id, created_by, body, created_at, updated_at FROM ticket_messages`

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO ticket_messages (id, ticket_id, created_by, body)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	if msg.ID.IsZero() {
		msg.ID = domain.NewID()
	}
	return r.db.QueryRow(ctx, query,
		string(msg.ID),
		string(msg.TicketID),
		string(msg.CreatedBy),
		msg.Body,
	).Scan(&msg.CreatedAt, &msg.UpdatedAt)
}

func (r *ticketMessageRepository) UpdateBody(ctx context.Context, msg *domain.Message) error {
	const query = `UPDATE ticket_messages SET body=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
	return r.db.QueryRow(ctx, query, msg.Body, string(msg.ID)).Scan(&msg.UpdatedAt)
}

func (r *ticketMessageRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_messages WHERE id=$1`, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketMessageRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Message, error) {
	return scanMessage(r.db.QueryRow(ctx, messageSelect+` WHERE id=$1`, string(id)))
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID domain.ID) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, messageSelect+` WHERE ticket_id=$1 ORDER BY created_at ASC`, string(ticketID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		msg                     domain.Message
		id, ticketID, createdBy string
	)
	if err := row.Scan(&id, &ticketID, &createdBy, &msg.Body, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
		return nil, err
	}
	msg.ID = domain.ID(id)
	msg.TicketID = domain.ID(ticketID)
	msg.CreatedBy = domain.ID(createdBy)
	return &msg, nil
}
