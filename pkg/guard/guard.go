// Package guard resolves the session cookie of a request into the principal
// that owns it.
//
// Resolution never writes: there is no sliding expiry and nothing is cached
// between requests. Every failure is an *AuthError; turning it into an HTTP
// response is left to the outermost middleware.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ryan-Har/commonground/internal/metrics"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Ryan-Har/commonground/pkg/guard"

// Kind names the check a resolution failed on.
type Kind string

const (
	KindNoCookie        Kind = "no_cookie"
	KindSessionNotFound Kind = "session_not_found"
	KindSessionExpired  Kind = "session_expired"
	KindSessionRevoked  Kind = "session_revoked"
	KindAccountNotFound Kind = "account_not_found"
	KindStoreFailure    Kind = "store_failure"
)

// AuthError is returned for every failed resolution.
type AuthError struct {
	Kind Kind
	err  error
}

func (e *AuthError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("guard: %s: %v", e.Kind, e.err)
	}
	return "guard: " + string(e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.err
}

// Is matches any *AuthError of the same kind, or any *AuthError when the
// target has no kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// ErrAuth matches every resolution failure through errors.Is.
var ErrAuth = &AuthError{}

func newAuthError(kind Kind, err error) *AuthError {
	return &AuthError{Kind: kind, err: err}
}

// KindOf returns the failure kind of err, or "" when err is not an *AuthError.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// SessionGetter returns the raw stored session. A missing id must be a
// models.NotFoundError.
type SessionGetter interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
}

// AccountGetter returns a models.NotFoundError when the account is gone.
type AccountGetter interface {
	GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type Resolver struct {
	log      *slog.Logger
	sessions SessionGetter
	accounts AccountGetter
	now      func() time.Time
	tracer   trace.Tracer
}

func NewResolver(logger *slog.Logger, sessions SessionGetter, accounts AccountGetter) *Resolver {
	return &Resolver{
		log:      logger,
		sessions: sessions,
		accounts: accounts,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
}

// Resolve runs the checks in order and stops at the first that fails:
// empty id, unknown session, expired session, revoked session, unknown account.
func (g *Resolver) Resolve(ctx context.Context, sessionID string) (p *models.Principal, err error) {
	ctx, span := g.tracer.Start(ctx, "guard.Resolve")
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
			span.SetAttributes(attribute.String("guard.failure", outcome))
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(attribute.String("guard.account_id", p.Account.ID.String()))
		}
		metrics.RecordResolution(outcome, time.Since(start).Seconds())
		span.End()
	}()

	if sessionID == "" {
		return nil, newAuthError(KindNoCookie, nil)
	}

	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, newAuthError(KindSessionNotFound, nil)
		}
		g.log.Error("session lookup failed", "err", err)
		return nil, newAuthError(KindStoreFailure, err)
	}
	if sess == nil {
		return nil, newAuthError(KindSessionNotFound, nil)
	}

	if sess.Expired(g.now()) {
		return nil, newAuthError(KindSessionExpired, nil)
	}
	if sess.Revoked {
		return nil, newAuthError(KindSessionRevoked, nil)
	}

	acc, err := g.accounts.GetAccountByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			g.log.Info("session references missing account", "account_id", sess.AccountID)
			return nil, newAuthError(KindAccountNotFound, nil)
		}
		g.log.Error("account lookup failed", "account_id", sess.AccountID, "err", err)
		return nil, newAuthError(KindStoreFailure, err)
	}
	if acc == nil {
		return nil, newAuthError(KindAccountNotFound, nil)
	}

	return &models.Principal{Account: *acc, SessionID: sess.ID}, nil
}

// ResolveRequest reads the named cookie and resolves its value.
func (g *Resolver) ResolveRequest(r *http.Request, cookieName string) (*models.Principal, error) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return g.Resolve(r.Context(), "")
	}
	return g.Resolve(r.Context(), c.Value)
}
