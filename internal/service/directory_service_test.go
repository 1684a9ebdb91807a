package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func TestDepartmentService_NameUniqueIgnoringCase(t *testing.T) {
	svc := NewDepartmentService(newMemDepartments(domain.Department{ID: deptSupport, Name: "Support", IsActive: true}))

	_, err := svc.Create(context.Background(), DepartmentInput{Name: strPtr("SUPPORT")})
	requireCode(t, err, apperrors.CodeDuplicate)

	dept, err := svc.Create(context.Background(), DepartmentInput{Name: strPtr(" Billing ")})
	require.NoError(t, err)
	assert.Equal(t, "Billing", dept.Name)
	assert.True(t, dept.IsActive)

	_, err = svc.Update(context.Background(), dept.ID, DepartmentInput{Name: strPtr("support")})
	requireCode(t, err, apperrors.CodeDuplicate)

	renamed, err := svc.Update(context.Background(), deptSupport, DepartmentInput{Name: strPtr("support")})
	require.NoError(t, err)
	assert.Equal(t, "support", renamed.Name)
}

func TestDepartmentService_Validation(t *testing.T) {
	svc := NewDepartmentService(newMemDepartments())
	_, err := svc.Create(context.Background(), DepartmentInput{})
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Get(context.Background(), "missing")
	requireCode(t, err, apperrors.CodeNotFound)
	requireCode(t, svc.Delete(context.Background(), "missing"), apperrors.CodeNotFound)
}

func TestCategoryService_DepartmentLinks(t *testing.T) {
	depts := newMemDepartments(
		domain.Department{ID: deptSupport, Name: "Support"},
		domain.Department{ID: deptSales, Name: "Sales"},
	)
	svc := NewCategoryService(newMemCategories(), depts)

	links := []domain.ID{deptSupport, deptSales, deptSupport}
	cat, err := svc.Create(context.Background(), CategoryInput{Name: strPtr("Hardware"), DepartmentIDs: &links})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{deptSupport, deptSales}, cat.DepartmentIDs)

	bad := []domain.ID{"dept-ghost"}
	_, err = svc.Update(context.Background(), cat.ID, CategoryInput{DepartmentIDs: &bad})
	requireCode(t, err, apperrors.CodeValidation)

	none := []domain.ID{}
	updated, err := svc.Update(context.Background(), cat.ID, CategoryInput{DepartmentIDs: &none})
	require.NoError(t, err)
	assert.Empty(t, updated.DepartmentIDs)
	assert.Equal(t, "Hardware", updated.Name)
}
