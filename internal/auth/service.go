package auth

import (
	"context"

	"github.com/rolegate/rolegate/internal/platform/password"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/users"
)

// CredentialLookup loads a user together with its password hash.
type CredentialLookup interface {
	FindUserByEmail(ctx context.Context, email string) (*users.User, error)
}

// TokenSigner issues bearer tokens.
type TokenSigner interface {
	Sign(claims Claims, opts ...SignOption) (string, error)
}

// Service wraps authentication business rules.
type Service struct {
	users    CredentialLookup
	hasher   password.Hasher
	tokens   TokenSigner
	sessions SessionStore
}

// NewService constructs a new Service.
func NewService(users CredentialLookup, hasher password.Hasher, tokens TokenSigner, sessions SessionStore) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, sessions: sessions}
}

// Authenticate validates email/password credentials. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*users.User, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	ok, err := s.hasher.Compare(user.PasswordHash, plain)
	if err != nil || !ok {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// CreateSession issues a token for userID and stores it as the user's only
// live session, rotating out any previous token.
func (s *Service) CreateSession(ctx context.Context, userID string) (LoginResult, error) {
	token, err := s.tokens.Sign(Claims{UserID: userID})
	if err != nil {
		return LoginResult{}, err
	}
	if _, err := s.sessions.Create(ctx, userID, token); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Success: true, Token: token}, nil
}

// Login authenticates and creates a session.
func (s *Service) Login(ctx context.Context, email, plain string) (LoginResult, error) {
	user, err := s.Authenticate(ctx, email, plain)
	if err != nil {
		return LoginResult{}, err
	}
	return s.CreateSession(ctx, user.ID)
}

// Logout removes the session. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	_, err := s.sessions.Delete(ctx, sessionID)
	return err
}
