// Package commonground assembles the account, session and file stores, the
// session guard and the builtin HTTP routes into one value an application
// mounts on its router.
package commonground

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/Ryan-Har/commonground/internal/filestore"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/internal/ratelimit"
	"github.com/Ryan-Har/commonground/internal/sessionstore"
	"github.com/Ryan-Har/commonground/internal/tokenstore"
	"github.com/Ryan-Har/commonground/pkg/builtins"
	"github.com/Ryan-Har/commonground/pkg/config"
	"github.com/Ryan-Har/commonground/pkg/enforcer"
	"github.com/Ryan-Har/commonground/pkg/guard"
	"github.com/Ryan-Har/commonground/pkg/models/passwd"
	"github.com/Ryan-Har/commonground/pkg/store"
)

type CommonGround struct {
	logger   *slog.Logger
	config   *config.Config
	Store    *store.Store
	Resolver *guard.Resolver
	Enforcer *enforcer.Enforcer
	Builtins *builtins.Builtin

	// Hold information to initialize services after configuration
	params       store.Params
	router       enforcer.Router
	notifier     builtins.Notifier
	limiter      *ratelimit.Limiter
	files        afero.Fs
	maxFileBytes int64
	noRoutes     bool
	closed       bool
}

type Option func(*CommonGround)

func WithLogger(l *slog.Logger) Option {
	return func(g *CommonGround) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithSqliteDB(db *sql.DB) Option {
	return func(g *CommonGround) {
		g.params.SQLite = db
	}
}

func WithPostgresPool(pool *pgxpool.Pool) Option {
	return func(g *CommonGround) {
		g.params.Postgres = pool
	}
}

// WithRedisSessionStore keeps sessions in redis instead of the database.
func WithRedisSessionStore(client redis.UniversalClient) Option {
	return func(g *CommonGround) {
		g.params.SessionBackend = store.SessionsInRedis
		g.params.Redis = client
	}
}

// WithInMemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart and are not shared between instances.
func WithInMemorySessionStore() Option {
	return func(g *CommonGround) {
		g.params.SessionBackend = store.SessionsInMemory
	}
}

// WithFileStore enables the file routes, storing uploads on fs. A maxBytes
// of zero leaves upload size unlimited.
func WithFileStore(fs afero.Fs, maxBytes int64) Option {
	return func(g *CommonGround) {
		g.files = fs
		g.maxFileBytes = maxBytes
	}
}

// WithConfig applies session, password, verification and login throttling
// settings. The database, redis and file store are still passed as options.
func WithConfig(cfg *config.Config) Option {
	return func(g *CommonGround) {
		g.config = cfg
	}
}

// WithRouter sets the router routes are registered on. Defaults to a new
// http.ServeMux.
func WithRouter(r enforcer.Router) Option {
	return func(g *CommonGround) {
		g.router = r
	}
}

// WithNotifier sets who delivers verification tokens. Defaults to logging them.
func WithNotifier(n builtins.Notifier) Option {
	return func(g *CommonGround) {
		g.notifier = n
	}
}

// WithoutBuiltinRoutes leaves route registration to the caller. The enforcer
// and stores are still available.
func WithoutBuiltinRoutes() Option {
	return func(g *CommonGround) {
		g.noRoutes = true
	}
}

// New builds the stores, migrates the schema and registers the builtin routes
// and their policies.
//
// Example:
//
//	cg, err := commonground.New(ctx,
//	    commonground.WithSqliteDB(db),
//	    commonground.WithLogger(logger),
//	)
//	http.ListenAndServe(":8080", cg.Handler())
func New(ctx context.Context, opts ...Option) (*CommonGround, error) {
	cg := &CommonGround{
		logger: logutil.Discard(),
	}

	for _, opt := range opts {
		opt(cg)
	}
	if cg.config == nil {
		cg.config = defaultConfig()
	}
	if cg.router == nil {
		cg.router = http.NewServeMux()
	}

	cg.logger.Info("starting commonground")

	cg.params.Session = SessionConfig(cg.config)
	if cg.files != nil {
		cg.params.Files = filestore.New(cg.files, cg.logger, cg.maxFileBytes)
	}
	if cg.config.VerificationSecret != "" {
		tokens, err := tokenstore.New(cg.logger, cg.config.VerificationSecret, cg.config.VerificationTTL)
		if err != nil {
			return nil, fmt.Errorf("unable to create token store: %w", err)
		}
		cg.params.Tokens = tokens
	}

	s, err := store.New(ctx, cg.logger, cg.params)
	if err != nil {
		return nil, fmt.Errorf("unable to initialise stores: %w", err)
	}
	cg.Store = s
	cg.logger.Debug("commonground stores loaded")

	cg.Resolver = guard.NewResolver(cg.logger, s.Sessions, s.Accounts)
	cg.Enforcer = enforcer.NewEnforcer(cg.logger, cg.router, cg.Resolver, s.Sessions, &enforcer.Config{CookieName: s.Sessions.CookieName()})
	cg.logger.Info("commonground enforcer loaded")

	hasher, err := passwd.NewHasher(cg.config.BcryptCost)
	if err != nil {
		s.Close()
		return nil, err
	}
	if cg.config.LoginRatePerSecond > 0 && cg.config.LoginBurst > 0 {
		cg.limiter = ratelimit.New(cg.logger, cg.config.LoginRatePerSecond, cg.config.LoginBurst, cg.config.TrustProxyHeaders)
	}

	cg.Builtins = builtins.New(cg.logger, cg.Enforcer, builtins.Deps{
		Accounts:     s.Accounts,
		Sessions:     s.Sessions,
		Files:        s.Files,
		Tokens:       s.Tokens,
		Hasher:       hasher,
		Notifier:     cg.notifier,
		LoginLimiter: cg.limiter,
		Health:       s.Health,
	})
	if !cg.noRoutes {
		cg.Builtins.LoadAllPolicies()
		if err := cg.Builtins.LoadAllRoutes(); err != nil {
			cg.Close()
			return nil, fmt.Errorf("unable to register builtin routes: %w", err)
		}
	}

	return cg, nil
}

// Handler returns the router as an http.Handler, or nil when a router that
// does not serve HTTP was supplied.
func (cg *CommonGround) Handler() http.Handler {
	h, _ := cg.router.(http.Handler)
	return h
}

// Config returns the settings in effect.
func (cg *CommonGround) Config() config.Config {
	return *cg.config
}

// Close stops background workers. Database, redis and file handles belong to
// the caller.
func (cg *CommonGround) Close() {
	if cg.closed {
		return
	}
	cg.closed = true
	if cg.limiter != nil {
		cg.limiter.Stop()
	}
	if cg.Store != nil {
		cg.Store.Close()
	}
}

// SessionConfig maps the session settings of cfg onto the session store.
func SessionConfig(cfg *config.Config) sessionstore.Config {
	return sessionstore.Config{
		Cookie: sessionstore.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionCookieSecure,
		},
		TokenBytes:      cfg.SessionTokenBytes,
		TTL:             cfg.SessionTTL,
		Retention:       cfg.SessionRetention,
		CleanupInterval: cfg.SessionCleanupInterval,
	}
}

// defaultConfig is used by library callers that do not pass WithConfig.
// Verification stays off without a secret.
func defaultConfig() *config.Config {
	return &config.Config{
		SessionCookieName:      sessionstore.DefaultCookieName,
		SessionCookieSecure:    true,
		SessionTTL:             sessionstore.DefaultTTL,
		SessionTokenBytes:      sessionstore.DefaultTokenBytes,
		SessionCleanupInterval: time.Hour,
		SessionRetention:       24 * time.Hour,
		BcryptCost:             passwd.DefaultCost,
		LoginRatePerSecond:     0.2,
		LoginBurst:             5,
	}
}
