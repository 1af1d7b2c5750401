package sessionstore

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Ryan-Har/commonground/internal/db/pgDB"
	"github.com/Ryan-Har/commonground/internal/db/sqliteDB"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCookieName = "session_id"
	DefaultTokenBytes = 32
	DefaultTTL        = 7 * 24 * time.Hour
)

// CookieConfig controls the cookie carrying the session id.
type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
}

// Config is shared by every backend.
type Config struct {
	Cookie          CookieConfig
	TokenBytes      int
	TTL             time.Duration
	Retention       time.Duration // zero purges as soon as a session expires or is revoked
	CleanupInterval time.Duration // zero disables the cleanup worker
}

func (c Config) withDefaults() Config {
	if c.Cookie.Name == "" {
		c.Cookie.Name = DefaultCookieName
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = "/"
	}
	if c.TokenBytes <= 0 {
		c.TokenBytes = DefaultTokenBytes
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Retention < 0 {
		c.Retention = 0
	}
	return c
}

func NewInMemory(logger *slog.Logger, cfg Config) *inMemorySessionStore {
	s := &inMemorySessionStore{
		baseSessionStore: newBase(logger, "memory", cfg),
		sessions:         make(map[string]*memoryEntry),
		mutex:            new(sync.Mutex),
	}
	s.startCleanupWorker(s, cfg.CleanupInterval)
	return s
}

func NewSqlite(logger *slog.Logger, cfg Config, db *sql.DB) *sqliteSessionStore {
	s := &sqliteSessionStore{
		baseSessionStore: newBase(logger, "sqlite", cfg),
		db:               db,
		queries:          *sqliteDB.New(db),
	}
	s.startCleanupWorker(s, cfg.CleanupInterval)
	return s
}

func NewPostgres(logger *slog.Logger, cfg Config, pool pgDB.DBTX) *postgresSessionStore {
	s := &postgresSessionStore{
		baseSessionStore: newBase(logger, "postgres", cfg),
		queries:          *pgDB.New(pool),
	}
	s.startCleanupWorker(s, cfg.CleanupInterval)
	return s
}

func NewRedis(logger *slog.Logger, cfg Config, client redis.UniversalClient) *redisSessionStore {
	s := &redisSessionStore{
		baseSessionStore: newBase(logger, "redis", cfg),
		client:           client,
		prefix:           "commonground:",
	}
	s.startCleanupWorker(s, cfg.CleanupInterval)
	return s
}

// Store defines the interface for a session store.
//
// Get returns the stored record as is, expired and revoked sessions
// included; deciding whether a session is usable belongs to the guard.
// A missing id is a models.NotFoundError.
type Store interface {
	// Create generates a new session for the account and persists it.
	Create(ctx context.Context, args models.CreateSessionParams) (*models.Session, error)

	// Get retrieves a session by its ID.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// Revoke flips the revoked flag. Revoking a missing or already revoked
	// session is not an error.
	Revoke(ctx context.Context, sessionID string) error

	// RevokeAllForAccount revokes every live session of the account and
	// returns how many were revoked. Used on ban and "log out everywhere".
	RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// CleanupExpired removes sessions that expired or were revoked longer
	// ago than the retention window and returns how many were removed.
	CleanupExpired(ctx context.Context) (int64, error)

	// Stop ends the background cleanup worker, if one is running.
	Stop()

	CookieName() string
	SetCookie(w http.ResponseWriter, sess *models.Session)
	ExpireCookie(w http.ResponseWriter)
}
