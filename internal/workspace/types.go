// Package workspace owns the workspace, membership and invitation models,
// their persistence contract, and the services governing membership.
package workspace

import (
	"errors"
	"time"
)

// Role is the membership role inside a workspace. Exactly one OWNER exists
// per workspace at creation; OWNER cannot be removed through the removal
// path.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// InvitationStatus is the invitation state. PENDING is the only non-terminal
// state; ACCEPTED and DECLINED never reopen.
type InvitationStatus string

const (
	StatusPending  InvitationStatus = "PENDING"
	StatusAccepted InvitationStatus = "ACCEPTED"
	StatusDeclined InvitationStatus = "DECLINED"
)

// Workspace is a shared space owned by its creating user.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership joins a user to a workspace. (WorkspaceID, UserID) is unique: a
// user holds at most one membership per workspace.
type Membership struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Invitation is a pending offer of membership, resolved by accept or decline.
type Invitation struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id"`
	InviterID   string           `json:"inviter_id"`
	InviteeID   string           `json:"invitee_id"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Member is a membership enriched with minimal user identity for display.
// Never carries a password hash.
type Member struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// WorkspaceSummary is the workspace slice of an enriched invitation listing.
type WorkspaceSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

// UserSummary identifies a user in enriched read views.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// PendingInvitation is an invitation enriched with workspace and inviter
// summaries for the invitee's pending list.
type PendingInvitation struct {
	Invitation
	Workspace WorkspaceSummary `json:"workspace"`
	Inviter   UserSummary      `json:"inviter"`
}

// Store failures the services re-classify into the public taxonomy.
var (
	ErrNotFound = errors.New("workspace: not found")
	ErrConflict = errors.New("workspace: already exists")
)
