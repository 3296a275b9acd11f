package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"teamspace.org/internal/apperr"
	"teamspace.org/internal/session"
	"teamspace.org/internal/token"
	"teamspace.org/internal/user"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/v1/auth/logout",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth verifies the bearer access token on protected paths and attaches
// the resulting principal to the request context. Expired and malformed
// tokens answer with distinct codes so clients refresh only when expired.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.verifier == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			ae := apperr.InvalidToken()
			writeError(w, r, ae.Status, ae.Code, err.Error())
			return
		}

		claims, err := a.verifier.Verify(token.KindAccess, raw)
		if err != nil {
			var ae *apperr.Error
			if errors.Is(err, token.ErrTokenExpired) {
				ae = apperr.TokenExpired()
			} else {
				ae = apperr.InvalidToken()
			}
			writeError(w, r, ae.Status, ae.Code, ae.Message)
			return
		}

		ctx := session.ContextWithPrincipal(r.Context(), session.Principal{
			UserID: claims.Subject,
			Email:  claims.Email,
			Role:   user.Role(claims.Role),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePrincipal answers 401 and returns false when the request carries no
// authenticated principal.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (session.Principal, bool) {
	p, ok := session.PrincipalFromContext(r.Context())
	if !ok {
		ae := apperr.InvalidToken()
		writeError(w, r, ae.Status, ae.Code, "authentication required")
		return session.Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	raw := strings.TrimSpace(header[len(bearer):])
	if raw == "" {
		return "", errors.New("missing bearer token")
	}
	return raw, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
