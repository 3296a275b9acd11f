package workspace

import (
	"context"
	"errors"

	"teamspace.org/internal/apperr"
)

// Service implements workspace creation and read-side queries.
type Service struct {
	store Store
}

// NewService constructs a Service over the injected store.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("workspace: store is required")
	}
	return &Service{store: store}, nil
}

// Create validates the name and creates the workspace together with its
// OWNER membership as one atomic unit.
func (s *Service) Create(ctx context.Context, name string, isPublic bool, ownerID string) (*Workspace, error) {
	name, rules := NormalizeName(name)
	if len(rules) > 0 {
		return nil, apperr.Validation(rules)
	}

	existing, err := s.store.FindByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(existing) > 0 {
		return nil, apperr.WorkspaceNameExists()
	}

	ws, err := s.store.CreateWorkspaceWithOwner(ctx, name, isPublic, ownerID)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, apperr.WorkspaceNameExists()
		}
		return nil, apperr.Internal(err)
	}
	return ws, nil
}

// UserWorkspaces lists every workspace where the user holds any membership,
// ordered by creation time ascending.
func (s *Service) UserWorkspaces(ctx context.Context, userID string) ([]Workspace, error) {
	list, err := s.store.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// Members lists memberships of a workspace enriched with user id and email.
func (s *Service) Members(ctx context.Context, workspaceID string) ([]Member, error) {
	if _, err := s.store.FindWorkspaceByID(ctx, workspaceID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.WorkspaceNotFound()
		}
		return nil, apperr.Internal(err)
	}
	members, err := s.store.FindMembersByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return members, nil
}
