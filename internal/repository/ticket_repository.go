package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures list parameters.
type TicketFilter struct {
	CreatedBy    *domain.ID
	DepartmentID *domain.ID
	CategoryID   *domain.ID
	AssigneeID   *domain.ID
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	UpdateDetails(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id domain.ID) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	SaveStatus(ctx context.Context, id domain.ID, expected, next domain.TicketStatus) (*domain.Ticket, error)
	SaveAssignees(ctx context.Context, id domain.ID, expected, next []domain.ID) (*domain.Ticket, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

var ticketColumns = []string{
	"id", "title", "description", "status", "priority", "category_id",
	"created_by", "department_id", "assigned_users", "created_at", "updated_at",
}

var ticketSelect = strings.Join(ticketColumns, ", ")

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, status, priority, category_id, created_by, department_id, assigned_users)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	if ticket.ID.IsZero() {
		ticket.ID = domain.NewID()
	}
	if ticket.AssignedUsers == nil {
		ticket.AssignedUsers = []domain.ID{}
	}
	return r.db.QueryRow(ctx, query,
		string(ticket.ID),
		ticket.Title,
		ticket.Description,
		int(ticket.Status),
		int(ticket.Priority),
		optionalString(ticket.CategoryID),
		string(ticket.CreatedBy),
		optionalString(ticket.DepartmentID),
		toStrings(ticket.AssignedUsers),
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

// UpdateDetails never touches status or assignees; those go through the CAS writes.
func (r *ticketRepository) UpdateDetails(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, category_id=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		int(ticket.Priority),
		optionalString(ticket.CategoryID),
		string(ticket.ID),
	).Scan(&ticket.UpdatedAt)
	return err
}

func (r *ticketRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketSelect + ` FROM tickets WHERE id=$1`
	return scanTicket(r.db.QueryRow(ctx, query, string(id)))
}

// SaveStatus writes next only while the stored status still equals expected.
func (r *ticketRepository) SaveStatus(ctx context.Context, id domain.ID, expected, next domain.TicketStatus) (*domain.Ticket, error) {
	query := `UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING ` + ticketSelect
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, int(next), string(id), int(expected)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrStale(ctx, id)
	}
	return ticket, err
}

// SaveAssignees writes next only while the stored set still equals expected, ignoring order.
func (r *ticketRepository) SaveAssignees(ctx context.Context, id domain.ID, expected, next []domain.ID) (*domain.Ticket, error) {
	query := `UPDATE tickets SET assigned_users=$1, updated_at=NOW()
        WHERE id=$2 AND assigned_users @> $3::text[] AND assigned_users <@ $3::text[]
        RETURNING ` + ticketSelect
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, toStrings(next), string(id), toStrings(expected)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrStale(ctx, id)
	}
	return ticket, err
}

// missOrStale tells a deleted ticket apart from a lost compare-and-swap.
func (r *ticketRepository) missOrStale(ctx context.Context, id domain.ID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, string(id)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStaleWrite
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumns...).From("tickets")

	if filter.CreatedBy != nil {
		builder = builder.Where(squirrel.Eq{"created_by": string(*filter.CreatedBy)})
	}
	if filter.DepartmentID != nil {
		builder = builder.Where(squirrel.Eq{"department_id": string(*filter.DepartmentID)})
	}
	if filter.CategoryID != nil {
		builder = builder.Where(squirrel.Eq{"category_id": string(*filter.CategoryID)})
	}
	if filter.AssigneeID != nil {
		builder = builder.Where(squirrel.Expr("? = ANY(assigned_users)", string(*filter.AssigneeID)))
	}
	if len(filter.Statuses) > 0 {
		codes := make([]int, len(filter.Statuses))
		for i, s := range filter.Statuses {
			codes[i] = int(s)
		}
		builder = builder.Where(squirrel.Eq{"status": codes})
	}
	if len(filter.Priorities) > 0 {
		codes := make([]int, len(filter.Priorities))
		for i, p := range filter.Priorities {
			codes[i] = int(p)
		}
		builder = builder.Where(squirrel.Eq{"priority": codes})
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		pattern := "%" + strings.TrimSpace(*filter.SearchTerm) + "%"
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder = builder.OrderBy("updated_at DESC").Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ticket query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		id         string
		status     int
		priority   int
		categoryID *string
		createdBy  string
		deptID     *string
		assigned   []string
	)
	if err := row.Scan(
		&id,
		&ticket.Title,
		&ticket.Description,
		&status,
		&priority,
		&categoryID,
		&createdBy,
		&deptID,
		&assigned,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.ID = domain.ID(id)
	ticket.Status = domain.TicketStatus(status)
	ticket.Priority = domain.TicketPriority(priority)
	ticket.CategoryID = optionalID(categoryID)
	ticket.CreatedBy = domain.ID(createdBy)
	ticket.DepartmentID = optionalID(deptID)
	ticket.AssignedUsers = toIDs(assigned)
	if err := ticket.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return &ticket, nil
}
