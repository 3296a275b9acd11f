// Package user owns the user record model and its persistence contract.
package user

import (
	"context"
	"errors"
	"time"
)

// Role is the account-level role. Declared once here and referenced
// everywhere else; never re-declared per layer.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a stored user record. PasswordHash never leaves the core; use View
// for anything caller-facing.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// View is the outward representation of a user.
type View struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// View strips the password hash.
func (u *User) View() View {
	return View{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

// Store failures the services re-classify into the public taxonomy.
var (
	ErrNotFound = errors.New("user: not found")
	ErrConflict = errors.New("user: already exists")
)

// Store describes persistence operations required for user records. Emails
// are stored normalized (trimmed, lower-cased); uniqueness is enforced by the
// store.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, email, passwordHash string, role Role) (*User, error)
}
