package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CategoryRepository persists categories and their department links.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id domain.ID) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	db DB
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categorySelect = `
        SELECT c.id, c.name, c.description,
               COALESCE(ARRAY_AGG(cd.department_id) FILTER (WHERE cd.department_id IS NOT NULL), '{}') AS department_ids,
               c.created_at, c.updated_at
        FROM categories c
        LEFT JOIN category_departments cd ON cd.category_id = c.id`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if category.ID.IsZero() {
		category.ID = domain.NewID()
	}
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO categories (id, name, description)
            VALUES ($1,$2,$3)
            RETURNING created_at, updated_at`
		if err := tx.QueryRow(ctx, query, string(category.ID), category.Name, category.Description).
			Scan(&category.CreatedAt, &category.UpdatedAt); err != nil {
			return err
		}
		return linkDepartments(ctx, tx, category)
	})
}

// Update replaces the category fields and its full set of department links.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		const query = `
            UPDATE categories SET name=$1, description=$2, updated_at=NOW()
            WHERE id=$3
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, query, category.Name, category.Description, string(category.ID)).
			Scan(&category.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM category_departments WHERE category_id=$1`, string(category.ID)); err != nil {
			return err
		}
		return linkDepartments(ctx, tx, category)
	})
}

func linkDepartments(ctx context.Context, tx pgx.Tx, category *domain.Category) error {
	for _, deptID := range domain.Dedupe(category.DepartmentIDs) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO category_departments (category_id, department_id) VALUES ($1,$2)`,
			string(category.ID), string(deptID),
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, string(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Category, error) {
	query := categorySelect + ` WHERE c.id=$1 GROUP BY c.id`
	return scanCategory(r.db.QueryRow(ctx, query, string(id)))
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, categorySelect+` GROUP BY c.id ORDER BY c.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *category)
	}
	return result, rows.Err()
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category domain.Category
		id       string
		depts    []string
	)
	if err := row.Scan(&id, &category.Name, &category.Description, &depts, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return nil, err
	}
	category.ID = domain.ID(id)
	category.DepartmentIDs = toIDs(depts)
	return &category, nil
}
