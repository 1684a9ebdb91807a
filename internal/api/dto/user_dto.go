package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserRegisterRequest payload for new users. Role is honoured only on the admin create path.
type UserRegisterRequest struct {
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	PhoneExt     int          `json:"phone_ext"`
	Password     string       `json:"password"`
	Role         *domain.Role `json:"role,omitempty"`
	DepartmentID *string      `json:"department_id,omitempty"`
}

// TokenRequest payload for login.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserUpdateRequest lists the editable profile fields.
type UserUpdateRequest struct {
	Username     *string      `json:"username"`
	Email        *string      `json:"email"`
	FullName     *string      `json:"full_name"`
	PhoneExt     *int         `json:"phone_ext"`
	Role         *domain.Role `json:"role"`
	DepartmentID *string      `json:"department_id"`
	ClearDept    bool         `json:"clear_department"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// UserResponse never exposes the password hash.
type UserResponse struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	PhoneExt     int         `json:"phone_ext"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		PhoneExt:     u.PhoneExt,
		Role:         u.Role,
		DepartmentID: idPtrString(u.DepartmentID),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// NewUserList maps a slice of users.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// OptionalID normalizes an optional id from a request body. Blank means absent.
func OptionalID(field string, raw *string) (*domain.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, ok := domain.ParseID(*raw)
	if !ok {
		return nil, apperrors.NewValidationError("malformed "+field, map[string]any{field: *raw})
	}
	return &id, nil
}

func idPtrString(id *domain.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func idStrings(ids []domain.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
