package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"teamspace.org/internal/config"
	"teamspace.org/internal/password"
	"teamspace.org/internal/session"
	"teamspace.org/internal/token"
	"teamspace.org/internal/user"
	"teamspace.org/internal/workspace"
)

// memUsers is an in-memory user.Store for boundary tests.
type memUsers struct {
	byEmail map[string]*user.User
	seq     int
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*user.User{}}
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, email, passwordHash string, role user.Role) (*user.User, error) {
	if _, ok := m.byEmail[email]; ok {
		return nil, user.ErrConflict
	}
	m.seq++
	u := &user.User{
		ID: fmt.Sprintf("user-%04d", m.seq), Email: email,
		PasswordHash: passwordHash, Role: role, CreatedAt: time.Now().UTC(),
	}
	m.byEmail[email] = u
	return u, nil
}

// memWorkspaces is an in-memory workspace.Store.
type memWorkspaces struct {
	workspaces  map[string]*workspace.Workspace
	memberships map[string]*workspace.Membership
	invitations map[string]*workspace.Invitation
	emails      map[string]string
	seq         int
}

func newMemWorkspaces() *memWorkspaces {
	return &memWorkspaces{
		workspaces:  map[string]*workspace.Workspace{},
		memberships: map[string]*workspace.Membership{},
		invitations: map[string]*workspace.Invitation{},
		emails:      map[string]string{},
	}
}

func (m *memWorkspaces) nextID() string {
	m.seq++
	return fmt.Sprintf("ws-%04d", m.seq)
}

func wsMemberKey(workspaceID, userID string) string { return workspaceID + "/" + userID }

func (m *memWorkspaces) CreateWorkspaceWithOwner(_ context.Context, name string, isPublic bool, ownerID string) (*workspace.Workspace, error) {
	ws := &workspace.Workspace{ID: m.nextID(), Name: name, IsPublic: isPublic, CreatedAt: time.Now().UTC()}
	m.workspaces[ws.ID] = ws
	m.memberships[wsMemberKey(ws.ID, ownerID)] = &workspace.Membership{
		WorkspaceID: ws.ID, UserID: ownerID, Role: workspace.RoleOwner, CreatedAt: ws.CreatedAt,
	}
	return ws, nil
}

func (m *memWorkspaces) FindWorkspaceByID(_ context.Context, id string) (*workspace.Workspace, error) {
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return ws, nil
}

func (m *memWorkspaces) FindAllByUser(_ context.Context, userID string) ([]workspace.Workspace, error) {
	var list []workspace.Workspace
	for _, mem := range m.memberships {
		if mem.UserID == userID {
			list = append(list, *m.workspaces[mem.WorkspaceID])
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *memWorkspaces) FindByOwnerAndName(_ context.Context, ownerID, name string) ([]workspace.Workspace, error) {
	var list []workspace.Workspace
	for _, mem := range m.memberships {
		if mem.UserID == ownerID && mem.Role == workspace.RoleOwner && m.workspaces[mem.WorkspaceID].Name == name {
			list = append(list, *m.workspaces[mem.WorkspaceID])
		}
	}
	return list, nil
}

func (m *memWorkspaces) FindMembership(_ context.Context, userID, workspaceID string) (*workspace.Membership, error) {
	mem, ok := m.memberships[wsMemberKey(workspaceID, userID)]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return mem, nil
}

func (m *memWorkspaces) FindMembersByWorkspace(_ context.Context, workspaceID string) ([]workspace.Member, error) {
	var members []workspace.Member
	for _, mem := range m.memberships {
		if mem.WorkspaceID == workspaceID {
			members = append(members, workspace.Member{
				UserID: mem.UserID, Email: m.emails[mem.UserID], Role: mem.Role, JoinedAt: mem.CreatedAt,
			})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (m *memWorkspaces) RemoveMembership(_ context.Context, workspaceID, userID string) error {
	key := wsMemberKey(workspaceID, userID)
	if _, ok := m.memberships[key]; !ok {
		return workspace.ErrNotFound
	}
	delete(m.memberships, key)
	return nil
}

func (m *memWorkspaces) CreateInvitation(_ context.Context, workspaceID, inviterID, inviteeID string) (*workspace.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.WorkspaceID == workspaceID && inv.InviteeID == inviteeID && inv.Status == workspace.StatusPending {
			return nil, workspace.ErrConflict
		}
	}
	now := time.Now().UTC()
	inv := &workspace.Invitation{
		ID: m.nextID(), WorkspaceID: workspaceID, InviterID: inviterID, InviteeID: inviteeID,
		Status: workspace.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	m.invitations[inv.ID] = inv
	return inv, nil
}

func (m *memWorkspaces) FindPendingInvitation(_ context.Context, workspaceID, inviteeID string) (*workspace.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.WorkspaceID == workspaceID && inv.InviteeID == inviteeID && inv.Status == workspace.StatusPending {
			return inv, nil
		}
	}
	return nil, workspace.ErrNotFound
}

func (m *memWorkspaces) FindPendingInvitationsByUser(_ context.Context, userID string) ([]workspace.PendingInvitation, error) {
	var list []workspace.PendingInvitation
	for _, inv := range m.invitations {
		if inv.InviteeID == userID && inv.Status == workspace.StatusPending {
			ws := m.workspaces[inv.WorkspaceID]
			list = append(list, workspace.PendingInvitation{
				Invitation: *inv,
				Workspace:  workspace.WorkspaceSummary{ID: ws.ID, Name: ws.Name, IsPublic: ws.IsPublic},
				Inviter:    workspace.UserSummary{ID: inv.InviterID, Email: m.emails[inv.InviterID]},
			})
		}
	}
	return list, nil
}

func (m *memWorkspaces) FindInvitationByID(_ context.Context, id string) (*workspace.Invitation, error) {
	inv, ok := m.invitations[id]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return inv, nil
}

func (m *memWorkspaces) AcceptInvitationAtomic(_ context.Context, invitationID, userID, workspaceID string) error {
	inv, ok := m.invitations[invitationID]
	if !ok || inv.Status != workspace.StatusPending {
		return workspace.ErrConflict
	}
	if _, exists := m.memberships[wsMemberKey(workspaceID, userID)]; exists {
		return workspace.ErrConflict
	}
	inv.Status = workspace.StatusAccepted
	inv.UpdatedAt = time.Now().UTC()
	m.memberships[wsMemberKey(workspaceID, userID)] = &workspace.Membership{
		WorkspaceID: workspaceID, UserID: userID, Role: workspace.RoleMember, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memWorkspaces) DeclineInvitation(_ context.Context, invitationID string) error {
	inv, ok := m.invitations[invitationID]
	if !ok || inv.Status != workspace.StatusPending {
		return workspace.ErrConflict
	}
	inv.Status = workspace.StatusDeclined
	inv.UpdatedAt = time.Now().UTC()
	return nil
}

type testEnv struct {
	api        *API
	server     *httptest.Server
	users      *memUsers
	workspaces *memWorkspaces
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := newMemUsers()
	stores := newMemWorkspaces()

	signer, err := token.NewSigner(
		strings.Repeat("a", 32), strings.Repeat("r", 32),
		15*time.Minute, 168*time.Hour,
	)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	hasher, err := password.NewHasher(password.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	sessions, err := session.NewService(users, signer, hasher)
	if err != nil {
		t.Fatalf("session.NewService: %v", err)
	}
	wsService, err := workspace.NewService(stores)
	if err != nil {
		t.Fatalf("workspace.NewService: %v", err)
	}
	invitations, err := workspace.NewInvitationService(stores, users)
	if err != nil {
		t.Fatalf("workspace.NewInvitationService: %v", err)
	}

	cfg := config.Config{
		Stage:              "dev",
		CookieSameSite:     "lax",
		RateLimitBurst:     1000,
		RateLimitPerSecond: 1000,
	}
	api := New(ReadyProbe{}, "test", cfg, sessions, wsService, invitations, signer)
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return &testEnv{api: api, server: server, users: users, workspaces: stores}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// register creates an account through the API and returns its tokens.
func (e *testEnv) register(t *testing.T, email string) (userID, access string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email": email, "password": "Sup3r$ecret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d body %v", email, resp.StatusCode, body)
	}
	u := body["user"].(map[string]any)
	tokens := body["tokens"].(map[string]any)
	userID = u["id"].(string)
	e.workspaces.emails[userID] = email
	return userID, tokens["access_token"].(string)
}
