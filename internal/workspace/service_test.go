package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamspace.org/internal/apperr"
)

func TestCreateWorkspaceGrantsOwnership(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	ws, err := svc.Create(context.Background(), "  Engineering  ", false, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", ws.Name)
	assert.False(t, ws.IsPublic)

	mem, err := store.FindMembership(context.Background(), "owner-1", ws.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, mem.Role)
}

func TestCreateWorkspaceRejectsInvalidName(t *testing.T) {
	svc, err := NewService(newMemStore())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "x", false, "owner-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(context.Background(), "total crap", false, "owner-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateWorkspaceDuplicateNamePerOwner(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Engineering", false, "owner-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Engineering", true, "owner-1")
	assert.True(t, errors.Is(err, apperr.WorkspaceNameExists()))

	// Same name under a different owner is fine.
	_, err = svc.Create(context.Background(), "Engineering", false, "owner-2")
	assert.NoError(t, err)
}

func TestUserWorkspacesListsEveryMembership(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store)
	require.NoError(t, err)

	first, err := svc.Create(context.Background(), "First", false, "owner-1")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "Second", true, "owner-1")
	require.NoError(t, err)

	list, err := svc.UserWorkspaces(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	empty, err := svc.UserWorkspaces(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMembersRequiresExistingWorkspace(t *testing.T) {
	svc, err := NewService(newMemStore())
	require.NoError(t, err)

	_, err = svc.Members(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.WorkspaceNotFound()))
}

func TestMembersIncludesEmails(t *testing.T) {
	store := newMemStore()
	store.emails["owner-1"] = "owner@example.com"
	svc, err := NewService(store)
	require.NoError(t, err)

	ws, err := svc.Create(context.Background(), "Engineering", false, "owner-1")
	require.NoError(t, err)

	members, err := svc.Members(context.Background(), ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "owner@example.com", members[0].Email)
	assert.Equal(t, RoleOwner, members[0].Role)
}

func TestServiceHidesStoreFailures(t *testing.T) {
	store := newMemStore()
	store.failAll = errors.New("connection reset")
	svc, err := NewService(store)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Engineering", false, "owner-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.NotContains(t, apperr.From(err).Message, "connection reset")
}
