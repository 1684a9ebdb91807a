package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username     string
	Email        string
	FullName     string
	PhoneExt     int
	Password     string
	Role         *domain.Role
	DepartmentID *domain.ID
}

// Session is the result of a successful login.
type Session struct {
	User       *domain.User
	Department *domain.Department
	Token      string
	ExpiresAt  time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

// Register creates a new account. Username, email and phone extension must all be unused.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return nil, apperrors.NewValidationError("username and email are required", nil)
	}
	if in.PhoneExt <= 0 {
		return nil, apperrors.NewValidationError("phone extension must be positive", nil)
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password is too short", map[string]any{"min_length": auth.MinPasswordLength})
	}
	role := domain.RoleCollaborator
	if in.Role != nil {
		role = *in.Role
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": int(role)})
	}
	if err := ensureDepartmentExists(ctx, s.departments, in.DepartmentID); err != nil {
		return nil, err
	}
	if err := ensureIdentityFree(ctx, s.users, "", in.Username, in.Email, in.PhoneExt); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneExt:     in.PhoneExt,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: in.DepartmentID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("user is inactive")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	session := &Session{User: user, Token: token, ExpiresAt: exp}
	if user.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *user.DepartmentID)
		if err == nil {
			session.Department = dept
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}
	return session, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// ensureIdentityFree rejects a username, email or phone extension held by another user.
func ensureIdentityFree(ctx context.Context, users repository.UserRepository, self domain.ID, username, email string, phoneExt int) error {
	existing, err := users.FindByIdentity(ctx, username, email, phoneExt)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, u := range existing {
		if u.ID == self {
			continue
		}
		var field string
		switch {
		case u.Username == username:
			field = "username"
		case strings.EqualFold(u.Email, email):
			field = "email"
		default:
			field = "phone_ext"
		}
		return apperrors.NewDuplicate(field+" already in use", map[string]any{"field": field})
	}
	return nil
}

func ensureDepartmentExists(ctx context.Context, departments repository.DepartmentRepository, id *domain.ID) error {
	if id == nil {
		return nil
	}
	if _, err := departments.GetByID(ctx, *id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("department does not exist", map[string]any{"department_id": id.String()})
		}
		return apperrors.MapError(err)
	}
	return nil
}
