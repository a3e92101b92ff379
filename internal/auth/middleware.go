package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/shared"
)

// Decider is the behaviour Middleware needs from Gate.
type Decider interface {
	Decide(ctx context.Context, token string, required []string) (Decision, error)
}

// DecisionObserver records gate outcomes, for example as metrics.
type DecisionObserver interface {
	ObserveAuthz(outcome string)
}

// Middleware wires gate decisions into HTTP handlers.
type Middleware struct {
	Gate     Decider
	Logger   *slog.Logger
	Observer DecisionObserver
}

// RequireAny admits callers holding at least one of roles and stores the
// caller's principal in the request context.
func (m Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	required := append([]string(nil), roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := m.Gate.Decide(r.Context(), BearerToken(r), required)
			if err != nil {
				m.observe("error")
				if m.Logger != nil {
					m.Logger.Error("authorization gate", slog.Any("error", err), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, err)
				return
			}
			if !decision.Allowed {
				m.observe(string(decision.Reason))
				if m.Logger != nil {
					m.Logger.Debug("request denied", slog.String("reason", string(decision.Reason)), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, decision.Reason.Err())
				return
			}
			m.observe("allow")
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), decision.Principal)))
		})
	}
}

func (m Middleware) observe(outcome string) {
	if m.Observer != nil {
		m.Observer.ObserveAuthz(outcome)
	}
}

var _ shared.RoleGuard = Middleware{}
