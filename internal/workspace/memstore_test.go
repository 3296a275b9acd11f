package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store for service tests. It enforces the same
// uniqueness rules as the SQL schema: one membership per (workspace, user)
// and at most one PENDING invitation per (workspace, invitee).
type memStore struct {
	mu          sync.Mutex
	workspaces  map[string]*Workspace
	memberships map[string]*Membership // key workspaceID+"/"+userID
	invitations map[string]*Invitation
	emails      map[string]string // userID -> email, for member listings
	seq         int
	failAll     error
}

func newMemStore() *memStore {
	return &memStore{
		workspaces:  map[string]*Workspace{},
		memberships: map[string]*Membership{},
		invitations: map[string]*Invitation{},
		emails:      map[string]string{},
	}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%04d", m.seq)
}

func memberKey(workspaceID, userID string) string { return workspaceID + "/" + userID }

func (m *memStore) CreateWorkspaceWithOwner(_ context.Context, name string, isPublic bool, ownerID string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	ws := &Workspace{ID: m.nextID(), Name: name, IsPublic: isPublic, CreatedAt: time.Now().UTC()}
	m.workspaces[ws.ID] = ws
	m.memberships[memberKey(ws.ID, ownerID)] = &Membership{
		WorkspaceID: ws.ID, UserID: ownerID, Role: RoleOwner, CreatedAt: ws.CreatedAt,
	}
	return ws, nil
}

func (m *memStore) FindWorkspaceByID(_ context.Context, id string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ws, nil
}

func (m *memStore) FindAllByUser(_ context.Context, userID string) ([]Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var list []Workspace
	for _, mem := range m.memberships {
		if mem.UserID == userID {
			list = append(list, *m.workspaces[mem.WorkspaceID])
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *memStore) FindByOwnerAndName(_ context.Context, ownerID, name string) ([]Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var list []Workspace
	for _, mem := range m.memberships {
		if mem.UserID == ownerID && mem.Role == RoleOwner && m.workspaces[mem.WorkspaceID].Name == name {
			list = append(list, *m.workspaces[mem.WorkspaceID])
		}
	}
	return list, nil
}

func (m *memStore) FindMembership(_ context.Context, userID, workspaceID string) (*Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	mem, ok := m.memberships[memberKey(workspaceID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return mem, nil
}

func (m *memStore) FindMembersByWorkspace(_ context.Context, workspaceID string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var members []Member
	for _, mem := range m.memberships {
		if mem.WorkspaceID == workspaceID {
			members = append(members, Member{
				UserID: mem.UserID, Email: m.emails[mem.UserID], Role: mem.Role, JoinedAt: mem.CreatedAt,
			})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (m *memStore) RemoveMembership(_ context.Context, workspaceID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	key := memberKey(workspaceID, userID)
	if _, ok := m.memberships[key]; !ok {
		return ErrNotFound
	}
	delete(m.memberships, key)
	return nil
}

func (m *memStore) CreateInvitation(_ context.Context, workspaceID, inviterID, inviteeID string) (*Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, inv := range m.invitations {
		if inv.WorkspaceID == workspaceID && inv.InviteeID == inviteeID && inv.Status == StatusPending {
			return nil, ErrConflict
		}
	}
	now := time.Now().UTC()
	inv := &Invitation{
		ID: m.nextID(), WorkspaceID: workspaceID, InviterID: inviterID, InviteeID: inviteeID,
		Status: StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	m.invitations[inv.ID] = inv
	return inv, nil
}

func (m *memStore) FindPendingInvitation(_ context.Context, workspaceID, inviteeID string) (*Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, inv := range m.invitations {
		if inv.WorkspaceID == workspaceID && inv.InviteeID == inviteeID && inv.Status == StatusPending {
			return inv, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindPendingInvitationsByUser(_ context.Context, userID string) ([]PendingInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var list []PendingInvitation
	for _, inv := range m.invitations {
		if inv.InviteeID == userID && inv.Status == StatusPending {
			ws := m.workspaces[inv.WorkspaceID]
			list = append(list, PendingInvitation{
				Invitation: *inv,
				Workspace:  WorkspaceSummary{ID: ws.ID, Name: ws.Name, IsPublic: ws.IsPublic},
				Inviter:    UserSummary{ID: inv.InviterID, Email: m.emails[inv.InviterID]},
			})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (m *memStore) FindInvitationByID(_ context.Context, id string) (*Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	inv, ok := m.invitations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}

func (m *memStore) AcceptInvitationAtomic(_ context.Context, invitationID, userID, workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	inv, ok := m.invitations[invitationID]
	if !ok || inv.Status != StatusPending {
		return ErrConflict
	}
	if _, exists := m.memberships[memberKey(workspaceID, userID)]; exists {
		return ErrConflict
	}
	inv.Status = StatusAccepted
	inv.UpdatedAt = time.Now().UTC()
	m.memberships[memberKey(workspaceID, userID)] = &Membership{
		WorkspaceID: workspaceID, UserID: userID, Role: RoleMember, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memStore) DeclineInvitation(_ context.Context, invitationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	inv, ok := m.invitations[invitationID]
	if !ok || inv.Status != StatusPending {
		return ErrConflict
	}
	inv.Status = StatusDeclined
	inv.UpdatedAt = time.Now().UTC()
	return nil
}
