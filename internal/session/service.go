// Package session orchestrates registration, login, refresh-with-rotation
// and logout over the credential signer, password hasher and user store.
package session

import (
	"context"
	"errors"

	"teamspace.org/internal/apperr"
	"teamspace.org/internal/password"
	"teamspace.org/internal/token"
	"teamspace.org/internal/user"
)

// Auth is the result of a successful register or login.
type Auth struct {
	User   user.View  `json:"user"`
	Tokens token.Pair `json:"tokens"`
}

// Service implements the session operations.
type Service struct {
	users  user.Store
	signer *token.Signer
	hasher *password.Hasher
}

// NewService constructs a Service over its injected collaborators.
func NewService(users user.Store, signer *token.Signer, hasher *password.Hasher) (*Service, error) {
	if users == nil {
		return nil, errors.New("session: user store is required")
	}
	if signer == nil {
		return nil, errors.New("session: token signer is required")
	}
	if hasher == nil {
		return nil, errors.New("session: password hasher is required")
	}
	return &Service{users: users, signer: signer, hasher: hasher}, nil
}

// Register creates a user with the default role and issues both credentials.
func (s *Service) Register(ctx context.Context, email, plaintext string) (Auth, error) {
	email, rules := NormalizeEmail(email)
	rules = append(rules, CheckPassword(plaintext)...)
	if len(rules) > 0 {
		return Auth{}, apperr.Validation(rules)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return Auth{}, apperr.EmailExists()
	} else if !errors.Is(err, user.ErrNotFound) {
		return Auth{}, apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return Auth{}, apperr.Internal(err)
	}

	u, err := s.users.Create(ctx, email, hash, user.RoleUser)
	if err != nil {
		// A concurrent registration may win the insert race; the store's
		// uniqueness constraint is the source of truth.
		if errors.Is(err, user.ErrConflict) {
			return Auth{}, apperr.EmailExists()
		}
		return Auth{}, apperr.Internal(err)
	}

	return s.issue(u)
}

// Login authenticates credentials and issues fresh tokens. Whether the email
// or the password was wrong is deliberately indistinguishable.
func (s *Service) Login(ctx context.Context, email, plaintext string) (Auth, error) {
	email, rules := NormalizeEmail(email)
	rules = append(rules, CheckPassword(plaintext)...)
	if len(rules) > 0 {
		return Auth{}, apperr.Validation(rules)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Auth{}, apperr.InvalidCredentials()
		}
		return Auth{}, apperr.Internal(err)
	}
	if !s.hasher.Verify(plaintext, u.PasswordHash) {
		return Auth{}, apperr.InvalidCredentials()
	}

	return s.issue(u)
}

// Refresh verifies the presented refresh token and rotates both credentials:
// the caller receives a brand-new access token and a brand-new refresh token
// and is expected to discard the old one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	claims, err := s.signer.Verify(token.KindRefresh, refreshToken)
	if err != nil {
		return token.Pair{}, apperr.InvalidRefreshToken()
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return token.Pair{}, apperr.InvalidRefreshToken()
		}
		return token.Pair{}, apperr.Internal(err)
	}

	pair, err := s.signer.Pair(u.ID, u.Email, string(u.Role))
	if err != nil {
		return token.Pair{}, apperr.Internal(err)
	}
	return pair, nil
}

// Logout is a best-effort hook. There is no server-side refresh token state
// to clear; the transport layer drops the client-held credential. The hook
// exists for future revocation support and never fails, even on garbage
// input.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return nil
}

func (s *Service) issue(u *user.User) (Auth, error) {
	pair, err := s.signer.Pair(u.ID, u.Email, string(u.Role))
	if err != nil {
		return Auth{}, apperr.Internal(err)
	}
	return Auth{User: u.View(), Tokens: pair}, nil
}
