package rbac

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/lensfolio/lensfolio/internal/platform/httpx"
	"github.com/lensfolio/lensfolio/internal/shared"
)

// PrincipalSource resolves a principal (with its role and effective
// permissions) from durable storage. Role data is fetched per request; there
// is deliberately no process-wide role cache to invalidate.
type PrincipalSource interface {
	PrincipalByID(ctx context.Context, id int64) (*Principal, error)
}

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Source PrincipalSource
	Logger *slog.Logger
}

// RequirePermission gates the wrapped handlers behind a permission check.
func (m Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return m.require(func(p *Principal) Decision {
		return AuthorizePermission(p, permission)
	})
}

// RequireRole gates the wrapped handlers behind an exact role-name check.
func (m Middleware) RequireRole(roleName string) func(http.Handler) http.Handler {
	return m.require(func(p *Principal) Decision {
		return AuthorizeRole(p, roleName)
	})
}

func (m Middleware) require(check func(*Principal) Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := m.currentPrincipal(r)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac resolve principal", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			decision := check(principal)
			if !decision.Allowed {
				respondDeny(w, decision)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// currentPrincipal loads the principal referenced by the request session.
// A missing or anonymous session yields (nil, nil): the evaluator turns that
// into a not-authenticated deny.
func (m Middleware) currentPrincipal(r *http.Request) (*Principal, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return nil, nil
	}
	principal, err := m.Source.PrincipalByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return principal, nil
}

func respondDeny(w http.ResponseWriter, decision Decision) {
	switch decision.Reason {
	case DenyNotAuthenticated:
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", string(decision.Reason))
	default:
		httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
	}
}
