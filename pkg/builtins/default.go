package builtins

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ryan-Har/commonground/pkg/enforcer"
	"github.com/Ryan-Har/commonground/pkg/models"
)

type Builtin struct {
	enforcer *enforcer.Enforcer
	handler  *Handler
}

// New initializes and returns a new Builtin instance.
func New(logger *slog.Logger, enforcer *enforcer.Enforcer, deps Deps) *Builtin {
	return &Builtin{
		enforcer: enforcer,
		handler:  newHandler(logger, deps),
	}
}

// LoadAllRoutes loads all default route groups (auth, account, forum, files,
// admin, health). If any group fails to register its routes, the error(s)
// will be combined and returned as a single error via errors.Join.
func (b *Builtin) LoadAllRoutes() error {
	errs := []error{
		b.LoadAuthRoutes(),
		b.LoadAccountRoutes(),
		b.LoadForumRoutes(),
		b.LoadFileRoutes(),
		b.LoadAdminRoutes(),
		b.LoadHealthRoute(),
	}

	return errors.Join(errs...)
}

// LoadAllPolicies sets the minimum role for every builtin route. Routes left
// out resolve the session in optional mode.
func (b *Builtin) LoadAllPolicies() {
	b.enforcer.SetPolicy("/api/v1/auth/me", "GET", models.RoleMember)
	b.enforcer.SetPolicy("/api/v1/auth/logout-all", "POST", models.RoleMember)
	b.enforcer.SetPolicy("/api/v1/account/verification", "POST", models.RoleMember)
	b.enforcer.SetPolicy("/api/v1/files/{id}", "PUT", models.RoleMember)
	b.enforcer.SetPolicy("/api/v1/files/{id}", "DELETE", models.RoleModerator)
	b.enforcer.SetPolicy("/api/v1/admin", "*", models.RoleAdmin)
}

// LoadAuthRoutes registers registration, login and logout. Login is rate
// limited per client when a limiter is configured.
func (b *Builtin) LoadAuthRoutes() error {
	var login http.Handler = b.handler.handleLogin()
	if b.handler.limiter != nil {
		login = b.handler.limiter.Middleware(login)
	}
	return b.registerRoutes(map[string]http.Handler{
		"POST /api/v1/auth/register":   b.handler.handleRegister(),
		"POST /api/v1/auth/login":      login,
		"POST /api/v1/auth/logout":     b.handler.handleLogout(),
		"POST /api/v1/auth/logout-all": b.handler.handleLogoutAll(),
		"GET /api/v1/auth/me":          b.handler.handleMe(),
	})
}

// LoadAccountRoutes registers e-mail verification. Skipped without a token store.
func (b *Builtin) LoadAccountRoutes() error {
	if b.handler.tokens == nil {
		return nil
	}
	return b.registerRoutes(map[string]http.Handler{
		"POST /api/v1/account/verification": b.handler.handleRequestVerification(),
		"POST /api/v1/account/verify":       b.handler.handleVerify(),
	})
}

func (b *Builtin) LoadForumRoutes() error {
	return b.registerRoutes(map[string]http.Handler{
		"GET /api/v1/forum/capabilities": b.handler.handleCapabilities(),
	})
}

// LoadFileRoutes registers upload, download and delete. Skipped without a file store.
func (b *Builtin) LoadFileRoutes() error {
	if b.handler.files == nil {
		return nil
	}
	return b.registerRoutes(map[string]http.Handler{
		"PUT /api/v1/files/{id}":    b.handler.handleFilePut(),
		"GET /api/v1/files/{id}":    b.handler.handleFileGet(),
		"DELETE /api/v1/files/{id}": b.handler.handleFileDelete(),
	})
}

func (b *Builtin) LoadAdminRoutes() error {
	return b.registerRoutes(map[string]http.Handler{
		"GET /api/v1/admin/accounts":            b.handler.handleAdminListAccounts(),
		"POST /api/v1/admin/accounts/{id}/ban":   b.handler.handleAdminSetBanned(true),
		"POST /api/v1/admin/accounts/{id}/unban": b.handler.handleAdminSetBanned(false),
	})
}

func (b *Builtin) LoadHealthRoute() error {
	return b.registerRoutes(map[string]http.Handler{
		"GET /healthz": b.handler.handleHealth(),
	})
}

// registerRoutes registers a set of HTTP routes with their corresponding handlers.
// It accepts a map where the keys are route patterns (e.g., "GET /healthz")
// and the values are the associated handlers.
//
// If any calls to enforcer.Handle fail, all resulting errors are collected
// and returned as a single error using errors.Join.
func (b *Builtin) registerRoutes(routes map[string]http.Handler) error {
	var errs []error
	for pattern, handler := range routes {
		if err := b.enforcer.Handle(pattern, handler); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
