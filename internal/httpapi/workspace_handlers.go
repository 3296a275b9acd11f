package httpapi

import (
	"net/http"
	"strings"

	"teamspace.org/internal/audit"
	"teamspace.org/internal/obs"
)

type createWorkspaceRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (a *API) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createWorkspaceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		ws, err := a.workspaces.Create(r.Context(), req.Name, req.IsPublic, p.UserID)
		if err != nil {
			handleAppError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "workspace.create", map[string]any{
			"workspace_id": ws.ID,
			"name":         ws.Name,
		})
		w.Header().Set("Location", "/v1/workspaces/"+ws.ID)
		writeJSON(w, http.StatusCreated, ws)
	case http.MethodGet:
		list, err := a.workspaces.UserWorkspaces(r.Context(), p.UserID)
		if err != nil {
			handleAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"workspaces": list})
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) handleWorkspaceScoped(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/workspaces/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	workspaceID := parts[0]
	switch {
	case len(parts) == 2 && parts[1] == "members":
		a.handleWorkspaceMembers(w, r, workspaceID)
	case len(parts) == 3 && parts[1] == "members":
		a.handleWorkspaceMemberRemove(w, r, workspaceID, parts[2], p.UserID)
	case len(parts) == 2 && parts[1] == "invitations":
		a.handleWorkspaceInvite(w, r, workspaceID, p.UserID)
	default:
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
	}
}

func (a *API) handleWorkspaceMembers(w http.ResponseWriter, r *http.Request, workspaceID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	members, err := a.workspaces.Members(r.Context(), workspaceID)
	if err != nil {
		handleAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (a *API) handleWorkspaceMemberRemove(w http.ResponseWriter, r *http.Request, workspaceID, memberID, currentUserID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if err := a.invitations.Remove(r.Context(), workspaceID, memberID, currentUserID); err != nil {
		handleAppError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "workspace.member.remove", map[string]any{
		"workspace_id": workspaceID,
		"member_id":    memberID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "removed"})
}

func (a *API) handleWorkspaceInvite(w http.ResponseWriter, r *http.Request, workspaceID, inviterID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	inv, err := a.invitations.Invite(r.Context(), workspaceID, inviterID, req.Email)
	if err != nil {
		obs.ObserveInvitation("invite", "failure")
		handleAppError(w, r, err)
		return
	}
	obs.ObserveInvitation("invite", "success")
	_ = audit.LogEvent(r.Context(), "workspace.invite", map[string]any{
		"workspace_id":  workspaceID,
		"invitation_id": inv.ID,
		"invitee_id":    inv.InviteeID,
	})
	writeJSON(w, http.StatusCreated, inv)
}

func (a *API) handlePendingInvitations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	list, err := a.invitations.Pending(r.Context(), p.UserID)
	if err != nil {
		handleAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": list})
}

func (a *API) handleInvitationScoped(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/invitations/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	invitationID := parts[0]
	switch parts[1] {
	case "accept":
		if err := a.invitations.Accept(r.Context(), invitationID, p.UserID); err != nil {
			obs.ObserveInvitation("accept", "failure")
			handleAppError(w, r, err)
			return
		}
		obs.ObserveInvitation("accept", "success")
		_ = audit.LogEvent(r.Context(), "workspace.invitation.accept", map[string]any{
			"invitation_id": invitationID,
		})
		writeJSON(w, http.StatusOK, map[string]any{"status": "accepted"})
	case "decline":
		if err := a.invitations.Decline(r.Context(), invitationID, p.UserID); err != nil {
			obs.ObserveInvitation("decline", "failure")
			handleAppError(w, r, err)
			return
		}
		obs.ObserveInvitation("decline", "success")
		_ = audit.LogEvent(r.Context(), "workspace.invitation.decline", map[string]any{
			"invitation_id": invitationID,
		})
		writeJSON(w, http.StatusOK, map[string]any{"status": "declined"})
	default:
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
	}
}
