package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/users"
)

// DenyReason names why the gate refused a request.
type DenyReason string

const (
	DenyNone            DenyReason = ""
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyInvalidToken    DenyReason = "invalid_token"
	DenyNotAuthorized   DenyReason = "not_authorized"
)

// Err returns the error sentinel for the reason.
func (r DenyReason) Err() error {
	switch r {
	case DenyUnauthenticated:
		return shared.ErrUnauthenticated
	case DenyInvalidToken:
		return shared.ErrInvalidToken
	case DenyNotAuthorized:
		return shared.ErrNotAuthorized
	default:
		return nil
	}
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Allowed   bool
	Reason    DenyReason
	Principal *shared.Principal
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// TokenVerifier decodes bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// SessionFinder looks up the live session holding a token.
type SessionFinder interface {
	FindByToken(ctx context.Context, token string) (*Session, error)
}

// IdentityResolver loads the caller and the ids of its roles.
type IdentityResolver interface {
	FindUserByID(ctx context.Context, id string) (*users.User, error)
}

// Gate decides whether a bearer token admits a request requiring one of a
// set of roles. It never mutates sessions or users.
type Gate struct {
	tokens   TokenVerifier
	sessions SessionFinder
	users    IdentityResolver
	roles    rbac.RoleNameResolver
}

// NewGate constructs a Gate.
func NewGate(tokens TokenVerifier, sessions SessionFinder, users IdentityResolver, roles rbac.RoleNameResolver) *Gate {
	return &Gate{tokens: tokens, sessions: sessions, users: users, roles: roles}
}

// Decide evaluates token against required. The error return is reserved for
// infrastructure faults; every denial is reported through Decision.
func (g *Gate) Decide(ctx context.Context, token string, required []string) (Decision, error) {
	if token == "" {
		return deny(DenyUnauthenticated), nil
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, shared.ErrConfiguration) {
			return Decision{}, err
		}
		return deny(DenyInvalidToken), nil
	}
	sess, err := g.sessions.FindByToken(ctx, token)
	if err != nil {
		return Decision{}, err
	}
	if sess == nil || sess.UserID != claims.UserID {
		return deny(DenyInvalidToken), nil
	}
	user, err := g.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return Decision{}, err
	}
	if user == nil || len(user.Roles) == 0 {
		return deny(DenyNotAuthorized), nil
	}
	names, err := g.roles.ResolveRoleNames(ctx, user.Roles)
	if err != nil {
		return Decision{}, err
	}
	if !intersects(names, required) {
		return deny(DenyNotAuthorized), nil
	}
	return Decision{
		Allowed:   true,
		Principal: &shared.Principal{UserID: user.ID, SessionID: sess.ID, Roles: names},
	}, nil
}

// intersects compares role names exactly; matching is case sensitive.
func intersects(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, name := range have {
		set[name] = struct{}{}
	}
	for _, name := range want {
		if _, ok := set[name]; ok {
			return true
		}
	}
	return false
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other shape yields "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return ""
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return ""
	}
	return token
}
