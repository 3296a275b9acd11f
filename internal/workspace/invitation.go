package workspace

import (
	"context"
	"errors"

	"teamspace.org/internal/apperr"
	"teamspace.org/internal/user"
)

// InvitationService governs the invite → accept/decline state machine and
// role-gated member removal.
type InvitationService struct {
	store Store
	users user.Store
}

// NewInvitationService constructs an InvitationService.
func NewInvitationService(store Store, users user.Store) (*InvitationService, error) {
	if store == nil {
		return nil, errors.New("workspace: store is required")
	}
	if users == nil {
		return nil, errors.New("workspace: user store is required")
	}
	return &InvitationService{store: store, users: users}, nil
}

// Invite creates a PENDING invitation for the user behind inviteeEmail.
// Preconditions, each a distinct failure: inviter holds any membership,
// workspace exists, invitee resolves by email, invitee is not already a
// member, no PENDING invitation exists for the pair. No email is sent here;
// delivery is external.
func (s *InvitationService) Invite(ctx context.Context, workspaceID, inviterID, inviteeEmail string) (*Invitation, error) {
	if _, err := s.store.FindMembership(ctx, inviterID, workspaceID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Forbidden("You are not a member of this workspace")
		}
		return nil, apperr.Internal(err)
	}

	if _, err := s.store.FindWorkspaceByID(ctx, workspaceID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.WorkspaceNotFound()
		}
		return nil, apperr.Internal(err)
	}

	invitee, err := s.users.FindByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperr.UserNotFound()
		}
		return nil, apperr.Internal(err)
	}

	if _, err := s.store.FindMembership(ctx, invitee.ID, workspaceID); err == nil {
		return nil, apperr.AlreadyMember()
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	if _, err := s.store.FindPendingInvitation(ctx, workspaceID, invitee.ID); err == nil {
		return nil, apperr.AlreadyExists("User already has a pending invitation to this workspace")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	inv, err := s.store.CreateInvitation(ctx, workspaceID, inviterID, invitee.ID)
	if err != nil {
		// Two concurrent invites race on the partial unique index; exactly
		// one PENDING row survives.
		if errors.Is(err, ErrConflict) {
			return nil, apperr.AlreadyExists("User already has a pending invitation to this workspace")
		}
		return nil, apperr.Internal(err)
	}
	return inv, nil
}

// Accept transitions a PENDING invitation to ACCEPTED and creates the MEMBER
// membership atomically: both writes become visible or neither does.
func (s *InvitationService) Accept(ctx context.Context, invitationID, userID string) error {
	inv, err := s.invitationForInvitee(ctx, invitationID, userID)
	if err != nil {
		return err
	}

	if _, err := s.store.FindMembership(ctx, userID, inv.WorkspaceID); err == nil {
		// Membership appeared through another path since the invite.
		return apperr.AlreadyExists("You are already a member of this workspace")
	} else if !errors.Is(err, ErrNotFound) {
		return apperr.Internal(err)
	}

	if err := s.store.AcceptInvitationAtomic(ctx, invitationID, userID, inv.WorkspaceID); err != nil {
		if errors.Is(err, ErrConflict) {
			return apperr.AlreadyExists("You are already a member of this workspace")
		}
		return apperr.Internal(err)
	}
	return nil
}

// Decline transitions a PENDING invitation to DECLINED. No membership side
// effect.
func (s *InvitationService) Decline(ctx context.Context, invitationID, userID string) error {
	if _, err := s.invitationForInvitee(ctx, invitationID, userID); err != nil {
		return err
	}
	if err := s.store.DeclineInvitation(ctx, invitationID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Remove deletes a membership. Only an OWNER may remove, and the OWNER
// membership itself can never be removed through this path.
func (s *InvitationService) Remove(ctx context.Context, workspaceID, memberID, currentUserID string) error {
	remover, err := s.store.FindMembership(ctx, currentUserID, workspaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Forbidden("Only workspace owners can remove members")
		}
		return apperr.Internal(err)
	}
	if remover.Role != RoleOwner {
		return apperr.Forbidden("Only workspace owners can remove members")
	}

	target, err := s.store.FindMembership(ctx, memberID, workspaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("User is not a member of this workspace")
		}
		return apperr.Internal(err)
	}
	if target.Role == RoleOwner {
		return apperr.Forbidden("Cannot remove the workspace owner")
	}

	if err := s.store.RemoveMembership(ctx, workspaceID, memberID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Pending lists the caller's PENDING invitations, newest first, enriched
// with workspace and inviter summaries.
func (s *InvitationService) Pending(ctx context.Context, userID string) ([]PendingInvitation, error) {
	list, err := s.store.FindPendingInvitationsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *InvitationService) invitationForInvitee(ctx context.Context, invitationID, userID string) (*Invitation, error) {
	inv, err := s.store.FindInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Invitation not found")
		}
		return nil, apperr.Internal(err)
	}
	if inv.InviteeID != userID {
		return nil, apperr.Forbidden("This invitation is not for you")
	}
	if inv.Status != StatusPending {
		return nil, apperr.AlreadyProcessed()
	}
	return inv, nil
}
