package workspace

import "context"

// Store describes persistence operations for workspaces, memberships and
// invitations. Uniqueness and the two compound atomics are the store's
// responsibility; a duplicate insert must fail rather than silently succeed.
type Store interface {
	// CreateWorkspaceWithOwner creates the workspace row and its OWNER
	// membership as a single unit. Partial creation is never observable.
	CreateWorkspaceWithOwner(ctx context.Context, name string, isPublic bool, ownerID string) (*Workspace, error)
	FindWorkspaceByID(ctx context.Context, id string) (*Workspace, error)
	FindAllByUser(ctx context.Context, userID string) ([]Workspace, error)
	FindByOwnerAndName(ctx context.Context, ownerID, name string) ([]Workspace, error)

	FindMembership(ctx context.Context, userID, workspaceID string) (*Membership, error)
	FindMembersByWorkspace(ctx context.Context, workspaceID string) ([]Member, error)
	RemoveMembership(ctx context.Context, workspaceID, userID string) error

	CreateInvitation(ctx context.Context, workspaceID, inviterID, inviteeID string) (*Invitation, error)
	FindPendingInvitation(ctx context.Context, workspaceID, inviteeID string) (*Invitation, error)
	FindPendingInvitationsByUser(ctx context.Context, userID string) ([]PendingInvitation, error)
	FindInvitationByID(ctx context.Context, id string) (*Invitation, error)
	// AcceptInvitationAtomic transitions the invitation to ACCEPTED and
	// creates the MEMBER membership in one transaction: both or neither.
	AcceptInvitationAtomic(ctx context.Context, invitationID, userID, workspaceID string) error
	DeclineInvitation(ctx context.Context, invitationID string) error
}
