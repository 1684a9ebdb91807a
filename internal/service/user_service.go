package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserService manages helpdesk accounts.
type UserService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	registrar   *AuthService
	bcryptCost  int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Auth           *AuthService
	BcryptCost     int
}

// UserUpdate lists the mutable profile fields; nil means unchanged.
type UserUpdate struct {
	Username     *string
	Email        *string
	FullName     *string
	PhoneExt     *int
	Role         *domain.Role
	DepartmentID *domain.ID
	ClearDept    bool
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		registrar:   deps.Auth,
		bcryptCost:  deps.BcryptCost,
	}
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id domain.ID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// Create is the administrative path to a new account; it shares registration rules.
func (s *UserService) Create(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.registrar.Register(ctx, in)
}

// Update applies whitelisted profile changes.
func (s *UserService) Update(ctx context.Context, id domain.ID, in UserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	if in.Username != nil {
		if v := strings.TrimSpace(*in.Username); v != "" {
			user.Username = v
		}
	}
	if in.Email != nil {
		if v := strings.TrimSpace(*in.Email); v != "" {
			user.Email = v
		}
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneExt != nil {
		if *in.PhoneExt <= 0 {
			return nil, apperrors.NewValidationError("phone extension must be positive", nil)
		}
		user.PhoneExt = *in.PhoneExt
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": int(*in.Role)})
		}
		user.Role = *in.Role
	}
	switch {
	case in.ClearDept:
		user.DepartmentID = nil
	case in.DepartmentID != nil:
		if err := ensureDepartmentExists(ctx, s.departments, in.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = in.DepartmentID
	}

	if err := ensureIdentityFree(ctx, s.users, user.ID, user.Username, user.Email, user.PhoneExt); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// ToggleStatus flips the active flag of another user.
func (s *UserService) ToggleStatus(ctx context.Context, actor domain.Actor, id domain.ID) (*domain.User, error) {
	if actor.ID == id {
		return nil, apperrors.NewValidationError("cannot change your own status", nil)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	user.Active = !user.Active
	if err := s.users.SetActive(ctx, id, user.Active); err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// ResetPassword sets a new password. Administrators may reset anyone; others only themselves.
func (s *UserService) ResetPassword(ctx context.Context, actor domain.Actor, id domain.ID, password string) error {
	if actor.ID != id && !actor.Role.IsAdministrative() {
		return apperrors.NewForbidden("you may only reset your own password")
	}
	if len(password) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password is too short", map[string]any{"min_length": auth.MinPasswordLength})
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return notFoundOr(err, "user", id)
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id domain.ID) error {
	if !actor.Role.CanDelete() {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFoundOr(err, "user", id)
	}
	return nil
}

// Colleagues lists active users of the actor's department, excluding the actor.
func (s *UserService) Colleagues(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if actor.DepartmentID == nil {
		return nil, apperrors.NewValidationError("you are not assigned to a department", nil)
	}
	members, err := s.users.ListByDepartment(ctx, *actor.DepartmentID, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]domain.User, 0, len(members))
	for _, u := range members {
		if u.ID != actor.ID {
			out = append(out, u)
		}
	}
	return out, nil
}

// DepartmentMembers lists every account of a department, inactive ones included.
func (s *UserService) DepartmentMembers(ctx context.Context, deptID domain.ID) ([]domain.User, error) {
	if _, err := s.departments.GetByID(ctx, deptID); err != nil {
		return nil, notFoundOr(err, "department", deptID)
	}
	members, err := s.users.ListByDepartment(ctx, deptID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}
