package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// DepartmentService manages departments.
type DepartmentService struct {
	departments repository.DepartmentRepository
}

// NewDepartmentService constructs the service.
func NewDepartmentService(departments repository.DepartmentRepository) *DepartmentService {
	return &DepartmentService{departments: departments}
}

// DepartmentInput carries department fields; nil pointers leave values unchanged on update.
type DepartmentInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

func (s *DepartmentService) Get(ctx context.Context, id domain.ID) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "department", id)
	}
	return dept, nil
}

func (s *DepartmentService) Create(ctx context.Context, in DepartmentInput) (*domain.Department, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	dept := &domain.Department{Name: strings.TrimSpace(*in.Name), IsActive: true}
	if in.Description != nil {
		dept.Description = *in.Description
	}
	if in.IsActive != nil {
		dept.IsActive = *in.IsActive
	}
	if err := s.ensureNameFree(ctx, "", dept.Name); err != nil {
		return nil, err
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

func (s *DepartmentService) Update(ctx context.Context, id domain.ID, in DepartmentInput) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "department", id)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		if err := s.ensureNameFree(ctx, id, name); err != nil {
			return nil, err
		}
		dept.Name = name
	}
	if in.Description != nil {
		dept.Description = *in.Description
	}
	if in.IsActive != nil {
		dept.IsActive = *in.IsActive
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, notFoundOr(err, "department", id)
	}
	return dept, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id domain.ID) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		return notFoundOr(err, "department", id)
	}
	return nil
}

// ensureNameFree enforces case-insensitive name uniqueness.
func (s *DepartmentService) ensureNameFree(ctx context.Context, self domain.ID, name string) error {
	existing, err := s.departments.GetByName(ctx, name)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return apperrors.MapError(err)
	case existing.ID != self:
		return apperrors.NewDuplicate("department name already in use", map[string]any{"name": name})
	}
	return nil
}

// CategoryService manages ticket categories and their department links.
type CategoryService struct {
	categories  repository.CategoryRepository
	departments repository.DepartmentRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, departments repository.DepartmentRepository) *CategoryService {
	return &CategoryService{categories: categories, departments: departments}
}

// CategoryInput carries category fields; nil pointers leave values unchanged on update.
type CategoryInput struct {
	Name          *string
	Description   *string
	DepartmentIDs *[]domain.ID
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, id domain.ID) (*domain.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return cat, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	cat := &domain.Category{Name: strings.TrimSpace(*in.Name)}
	if in.Description != nil {
		cat.Description = *in.Description
	}
	if in.DepartmentIDs != nil {
		ids, err := s.resolveDepartments(ctx, *in.DepartmentIDs)
		if err != nil {
			return nil, err
		}
		cat.DepartmentIDs = ids
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, apperrors.MapError(err)
	}
	return cat, nil
}

func (s *CategoryService) Update(ctx context.Context, id domain.ID, in CategoryInput) (*domain.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		cat.Name = name
	}
	if in.Description != nil {
		cat.Description = *in.Description
	}
	if in.DepartmentIDs != nil {
		ids, err := s.resolveDepartments(ctx, *in.DepartmentIDs)
		if err != nil {
			return nil, err
		}
		cat.DepartmentIDs = ids
	}
	if err := s.categories.Update(ctx, cat); err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return cat, nil
}

func (s *CategoryService) Delete(ctx context.Context, id domain.ID) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return notFoundOr(err, "category", id)
	}
	return nil
}

func (s *CategoryService) resolveDepartments(ctx context.Context, ids []domain.ID) ([]domain.ID, error) {
	ids = domain.Dedupe(ids)
	for i := range ids {
		if err := ensureDepartmentExists(ctx, s.departments, &ids[i]); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func notFoundOr(err error, resource string, id domain.ID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id.String()})
	}
	return apperrors.MapError(err)
}
