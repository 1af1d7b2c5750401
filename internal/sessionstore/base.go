package sessionstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/internal/metrics"
	"github.com/Ryan-Har/commonground/pkg/models"
)

type baseSessionStore struct {
	log           *slog.Logger
	backend       string        // metrics label
	tokenLength   int           // number of bytes used when generating tokens
	tokenDuration time.Duration // amount of time sessions are usable for
	retention     time.Duration // how long expired or revoked rows are kept before purging
	cookie        CookieConfig
	now           func() time.Time
	stopCh        chan struct{} // closed to stop the cleanup worker
	stopOnce      sync.Once
}

func newBase(logger *slog.Logger, backend string, cfg Config) *baseSessionStore {
	cfg = cfg.withDefaults()
	return &baseSessionStore{
		log:           logger.With("session_backend", backend),
		backend:       backend,
		tokenLength:   cfg.TokenBytes,
		tokenDuration: cfg.TTL,
		retention:     cfg.Retention,
		cookie:        cfg.Cookie,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

func (s *baseSessionStore) CookieName() string {
	return s.cookie.Name
}

// SetCookie writes the session cookie for sess.
func (s *baseSessionStore) SetCookie(w http.ResponseWriter, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    sess.ID,
		Path:     s.cookie.Path,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ExpireCookie tells the client to drop the session cookie.
func (s *baseSessionStore) ExpireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    "",
		Path:     s.cookie.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// newSession builds a session with a fresh token. It is not persisted.
func (s *baseSessionStore) newSession(args models.CreateSessionParams) (*models.Session, error) {
	now := s.now().UTC().Truncate(time.Second)

	sesID, err := generateSecureToken(s.tokenLength)
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to generate secure token", err)
	}

	return &models.Session{
		ID:        sesID,
		AccountID: args.AccountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenDuration),
		IpAddress: args.IpAddress,
		UserAgent: args.UserAgent,
	}, nil
}

// purgeBefore is the cutoff for CleanupExpired: rows that expired or were
// revoked before it are removed.
func (s *baseSessionStore) purgeBefore() time.Time {
	return s.now().Add(-s.retention)
}

// sessionNotFound keeps only a prefix of the token so errors and logs never
// carry a usable session id.
func sessionNotFound(sessionID string) error {
	return models.NewNotFoundError("session", redact(sessionID))
}

func redact(sessionID string) string {
	if len(sessionID) <= 6 {
		return "***"
	}
	return sessionID[:6] + "***"
}

// helper to generate secure token of a given length
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// expirable is implemented by session stores that support periodic purging
// of stale rows. It lets the base start the worker without knowing the backend.
type expirable interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// startCleanupWorker periodically purges stale sessions until Stop is called.
// A non-positive interval disables the worker.
func (s *baseSessionStore) startCleanupWorker(exp expirable, interval time.Duration) {
	if interval <= 0 {
		s.log.Debug("session cleanup worker disabled")
		return
	}
	s.log.Debug("Starting session cleanup worker", "interval", interval, "retention", s.retention)
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runCleanup(exp, interval/2)
			case <-s.stopCh:
				s.log.Info("Stopping session cleanup worker")
				return
			}
		}
	}()
}

func (s *baseSessionStore) runCleanup(exp expirable, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logutil.LogSlowOperation(s.log, timeout/2, "session cleanup", func() {
		n, err := exp.CleanupExpired(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.log.Error("failed to cleanup sessions", "err", err)
			return
		}
		if n > 0 {
			s.log.Info("purged stale sessions", "count", n)
		}
	})
}

// Stop ends the cleanup worker. It is safe to call more than once.
func (s *baseSessionStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *baseSessionStore) record(event string, n int64) {
	metrics.RecordSessionEvent(s.backend, event, n)
}

// ctxDone returns the context error if ctx is already finished.
func (s *baseSessionStore) ctxDone(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during "+op, "error", ctx.Err())
		return ctx.Err()
	default:
		return nil
	}
}
