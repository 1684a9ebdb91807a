package domain

import "time"

// Role is the numeric authorization tier of a user.
type Role int

const (
	RoleSuperAdmin   Role = 0
	RoleAdmin        Role = 1
	RoleSupervisor   Role = 2
	RoleCollaborator Role = 3
)

func (r Role) Valid() bool {
	return r >= RoleSuperAdmin && r <= RoleCollaborator
}

// IsAdministrative covers roles that may manage users, departments and categories.
func (r Role) IsAdministrative() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleSupervisor
}

// CanDelete covers roles that may delete users and tickets.
func (r Role) CanDelete() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// User is an authenticated member of the helpdesk.
type User struct {
	ID           ID
	Username     string
	Email        string
	FullName     string
	PhoneExt     int
	PasswordHash string
	Role         Role
	DepartmentID *ID
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the caller of an operation as seen by the services.
type Actor struct {
	ID           ID
	DepartmentID *ID
	Role         Role
}

// ActorOf projects a user onto the fields services authorize with.
func ActorOf(u *User) Actor {
	return Actor{ID: u.ID, DepartmentID: u.DepartmentID, Role: u.Role}
}
