package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id domain.ID) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	db DB
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

const departmentSelect = `SELECT id, name, description, is_active, created_at, updated_at FROM departments`

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (id, name, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	if dept.ID.IsZero() {
		dept.ID = domain.NewID()
	}
	return r.db.QueryRow(ctx, query,
		string(dept.ID),
		dept.Name,
		dept.Description,
		dept.IsActive,
	).Scan(&dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, description=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query,
		dept.Name,
		dept.Description,
		dept.IsActive,
		string(dept.ID),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id=$1`, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Department, error) {
	return scanDepartment(r.db.QueryRow(ctx, departmentSelect+` WHERE id=$1`, string(id)))
}

// GetByName matches case-insensitively.
func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	return scanDepartment(r.db.QueryRow(ctx, departmentSelect+` WHERE LOWER(name)=LOWER($1)`, strings.TrimSpace(name)))
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.db.Query(ctx, departmentSelect+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Department{}
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var (
		dept domain.Department
		id   string
	)
	if err := row.Scan(&id, &dept.Name, &dept.Description, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return nil, err
	}
	dept.ID = domain.ID(id)
	return &dept, nil
}
