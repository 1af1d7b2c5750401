package enforcer

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/metrics"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models"
)

type authErrKey struct{}

// AuthError returns why AuthenticationMiddleware could not attach a
// principal, or nil when it did or no session cookie was sent.
func AuthError(ctx context.Context) error {
	err, _ := ctx.Value(authErrKey{}).(error)
	if guard.KindOf(err) == guard.KindNoCookie {
		return nil
	}
	return err
}

// AuthenticationMiddleware resolves the session cookie and, on success,
// attaches the principal to the request context with guard.WithPrincipal.
//
// It never rejects a request. A failed resolution is kept in the context for
// AuthorizationMiddleware, and a cookie naming a dead session is cleared so
// the client stops sending it.
func (e *Enforcer) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := e.resolver.ResolveRequest(r, e.CookieName)
		if err != nil {
			switch guard.KindOf(err) {
			case guard.KindNoCookie:
			case guard.KindStoreFailure:
				e.log.Error("session resolution failed", "path", r.URL.Path, "err", err)
			default:
				e.log.Debug("session rejected", "path", r.URL.Path, "kind", guard.KindOf(err))
				if e.cookies != nil {
					e.cookies.ExpireCookie(w)
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authErrKey{}, err)))
			return
		}

		next.ServeHTTP(w, r.WithContext(guard.WithPrincipal(r.Context(), p)))
	})
}

// AuthorizationMiddleware returns an HTTP middleware that requires a
// principal with at least the required role.
//
// It expects AuthenticationMiddleware to have run. A missing principal is a
// 401 with the same body whatever the reason, except for store failures
// which are a 500. A principal below the required role is a 403.
func (e *Enforcer) AuthorizationMiddleware(path string, required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := guard.OptionalPrincipal(r.Context())
			if !ok {
				cause, _ := r.Context().Value(authErrKey{}).(error)
				if guard.KindOf(cause) == guard.KindStoreFailure {
					e.deny(w, api.InternalServerError().WithCause(cause))
					return
				}
				e.deny(w, api.Unauthorized().WithCause(cause))
				return
			}

			if !p.HasRole(required) {
				e.log.Info("access denied", "path", path, "account_id", p.Account.ID, "role", p.Account.Role, "required", required)
				e.deny(w, api.ForbiddenAccessDenied())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WrapHandler applies authentication and, when the matching policy is above
// RoleGuest, authorization to h.
func (e *Enforcer) WrapHandler(path, method string, h http.Handler) http.Handler {
	requiredRole, _ := e.FindMatchingPolicy(path, method)

	if requiredRole != models.RoleGuest {
		h = e.AuthorizationMiddleware(path, requiredRole)(h)
	}

	return e.AuthenticationMiddleware(h)
}

func (e *Enforcer) deny(w http.ResponseWriter, apiErr *api.Error) {
	metrics.AccessDenied.WithLabelValues(strconv.Itoa(apiErr.Status)).Inc()
	api.WriteError(w, e.log, apiErr)
}

func (e *Enforcer) respondMethodNotAllowed(w http.ResponseWriter) {
	e.deny(w, api.MethodNotAllowed())
}
