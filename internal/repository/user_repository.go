package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// UserRepository defines persistence access for helpdesk users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id domain.ID) error
	GetByID(ctx context.Context, id domain.ID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByIdentity(ctx context.Context, username, email string, phoneExt int) ([]domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	ListByDepartment(ctx context.Context, deptID domain.ID, activeOnly bool) ([]domain.User, error)
	MembersOfDepartment(ctx context.Context, deptID domain.ID) ([]domain.ID, error)
	SetActive(ctx context.Context, id domain.ID, active bool) error
	UpdatePassword(ctx context.Context, id domain.ID, hash string) error
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userSelect = `SELECT id, username, email, full_name, phone_ext, password_hash, role, department_id, active, created_at, updated_at FROM users`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, email, full_name, phone_ext, password_hash, role, department_id, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	if user.ID.IsZero() {
		user.ID = domain.NewID()
	}
	return r.db.QueryRow(ctx, query,
		string(user.ID),
		user.Username,
		user.Email,
		user.FullName,
		user.PhoneExt,
		user.PasswordHash,
		int(user.Role),
		optionalString(user.DepartmentID),
		user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, full_name=$3, phone_ext=$4, role=$5, department_id=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		user.Username,
		user.Email,
		user.FullName,
		user.PhoneExt,
		int(user.Role),
		optionalString(user.DepartmentID),
		string(user.ID),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id domain.ID) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE id=$1`, string(id)))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE username=$1`, strings.TrimSpace(username)))
}

// FindByIdentity returns users that share any unique field with the candidate.
func (r *userRepository) FindByIdentity(ctx context.Context, username, email string, phoneExt int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` WHERE username=$1 OR LOWER(email)=LOWER($2) OR phone_ext=$3`, username, email, phoneExt)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY username ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *userRepository) ListByDepartment(ctx context.Context, deptID domain.ID, activeOnly bool) ([]domain.User, error) {
	query := userSelect + ` WHERE department_id=$1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY username ASC`, string(deptID))
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// MembersOfDepartment always reads the current membership.
func (r *userRepository) MembersOfDepartment(ctx context.Context, deptID domain.ID) ([]domain.ID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE department_id=$1`, string(deptID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, domain.ID(id))
	}
	return members, rows.Err()
}

func (r *userRepository) SetActive(ctx context.Context, id domain.ID, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET active=$1, updated_at=NOW() WHERE id=$2`, active, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id domain.ID, hash string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()
	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user   domain.User
		id     string
		role   int
		deptID *string
	)
	if err := row.Scan(
		&id,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PhoneExt,
		&user.PasswordHash,
		&role,
		&deptID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.ID = domain.ID(id)
	user.Role = domain.Role(role)
	user.DepartmentID = optionalID(deptID)
	return &user, nil
}
