package httpapi

import (
	"net/http"
	"strings"
	"time"

	"teamspace.org/internal/apperr"
	"teamspace.org/internal/audit"
	"teamspace.org/internal/obs"
	"teamspace.org/internal/token"
	"teamspace.org/internal/user"
)

const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the cookie to the auth endpoints so it never
// rides along on workspace traffic.
const refreshCookiePath = "/v1/auth"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	User   user.View  `json:"user"`
	Tokens token.Pair `json:"tokens"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	auth, err := a.sessions.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveRegistration("failure")
		handleAppError(w, r, err)
		return
	}
	obs.ObserveRegistration("success")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": auth.User.ID,
		"email":   auth.User.Email,
	})

	a.setRefreshCookie(w, auth.Tokens)
	writeJSON(w, http.StatusCreated, authResponse{User: auth.User, Tokens: auth.Tokens})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	auth, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveLogin("failure")
		handleAppError(w, r, err)
		return
	}
	obs.ObserveLogin("success")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": auth.User.ID,
	})

	a.setRefreshCookie(w, auth.Tokens)
	writeJSON(w, http.StatusOK, authResponse{User: auth.User, Tokens: auth.Tokens})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	raw := a.refreshTokenFromRequest(w, r)
	if raw == "" {
		handleAppError(w, r, apperr.InvalidRefreshToken())
		return
	}

	pair, err := a.sessions.Refresh(r.Context(), raw)
	if err != nil {
		obs.ObserveRefresh("failure")
		handleAppError(w, r, err)
		return
	}
	obs.ObserveRefresh("success")

	// Rotation: the response and cookie both carry the new refresh token.
	a.setRefreshCookie(w, pair)
	writeJSON(w, http.StatusOK, map[string]any{"tokens": pair})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	raw := a.refreshTokenFromRequest(w, r)
	_ = a.sessions.Logout(r.Context(), raw)

	a.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

// refreshTokenFromRequest reads the refresh token from the JSON body when one
// is present, falling back to the scoped cookie.
func (a *API) refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) string {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err == nil {
		if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
			return raw
		}
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func (a *API) setRefreshCookie(w http.ResponseWriter, pair token.Pair) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     refreshCookiePath,
		Domain:   a.cfg.CookieDomain,
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   a.cfg.IsProd(),
		SameSite: a.cfg.SameSite(),
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   a.cfg.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.IsProd(),
		SameSite: a.cfg.SameSite(),
	})
}
