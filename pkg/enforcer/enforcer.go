package enforcer

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/Ryan-Har/commonground/pkg/models"
)

// Enforcer manages access control policies and wraps route handlers with
// authentication and authorization logic.
//
// A route whose policy is RoleGuest, or that has no policy, resolves the
// principal in optional mode: a missing or invalid session makes the request
// a guest. Any higher role makes the principal mandatory and then checks the
// role.
type Enforcer struct {
	log      *slog.Logger
	Policies map[string]map[string]models.Role  // e.g route: {GET: RoleMember, POST: RoleAdmin}
	handlers map[string]map[string]http.Handler // path -> method -> handler internal mapping
	router   Router                             // used for middlewares and creating routes
	resolver Resolver
	cookies  CookieExpirer
	Config
	mu sync.RWMutex // mutex to protect policies and handlers maps
}

type Config struct {
	CookieName string // name of the cookie carrying the session id
}

// Resolver turns the session cookie of a request into a principal.
// Failures are *guard.AuthError values.
type Resolver interface {
	ResolveRequest(r *http.Request, cookieName string) (*models.Principal, error)
}

// CookieExpirer clears the session cookie on the client.
type CookieExpirer interface {
	ExpireCookie(w http.ResponseWriter)
}

// NewEnforcer initializes and returns a new Enforcer instance.
//
// Example:
//
//	enforcer := NewEnforcer(logger, mux, resolver, sessionStore, &Config{CookieName: sessionStore.CookieName()})
func NewEnforcer(logger *slog.Logger, router Router, resolver Resolver, cookies CookieExpirer, config *Config) *Enforcer {
	if config == nil {
		config = newDefaultConfig()
	}
	if config.CookieName == "" {
		config.CookieName = newDefaultConfig().CookieName
	}

	return &Enforcer{
		log:      logger,
		Policies: make(map[string]map[string]models.Role),
		handlers: make(map[string]map[string]http.Handler),
		router:   router,
		resolver: resolver,
		cookies:  cookies,
		Config:   *config,
	}
}

func newDefaultConfig() *Config {
	return &Config{
		CookieName: "session_id",
	}
}

// SetPolicy allows defining the minimum required role for a given resource path and HTTP method.
// Use "*" as the method to apply the policy to all methods for that path.
func (e *Enforcer) SetPolicy(resourcePath string, method string, requiredRole models.Role) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}
	if _, ok := e.Policies[resourcePath]; !ok {
		e.Policies[resourcePath] = make(map[string]models.Role)
	}
	e.Policies[resourcePath][strings.ToUpper(method)] = requiredRole
}

// FindMatchingPolicy finds the most specific policy for a given resource path and method.
// It prioritizes exact method matches over wildcard method matches. A HEAD
// request without its own policy falls back to the GET policy.
func (e *Enforcer) FindMatchingPolicy(resourcePath, method string) (models.Role, bool) {
	method = strings.ToUpper(method)
	pathsToCheck := buildPrefixes(resourcePath)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, p := range pathsToCheck {
		if methodPolicies, ok := e.Policies[p]; ok {
			if requiredRole, methodOk := methodPolicies[method]; methodOk {
				return requiredRole, true
			}
			// HEAD is served by the GET handler, so it carries the GET policy
			if method == http.MethodHead {
				if requiredRole, getOk := methodPolicies[http.MethodGet]; getOk {
					return requiredRole, true
				}
			}
			if requiredRole, anyMethodOk := methodPolicies["*"]; anyMethodOk {
				return requiredRole, true
			}
		}
	}

	return models.RoleGuest, false
}

// buildPrefixes returns a list of paths to check from most specific to least specific.
// For "/a/b/c" it returns ["/a/b/c", "/a/b", "/a", "/"].
func buildPrefixes(path string) []string {
	if path == "" || path == "/" {
		return []string{"/"}
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		return []string{"/"}
	}

	prefixes := make([]string, 0, len(segments)+1)
	for i := len(segments); i > 0; i-- {
		prefixes = append(prefixes, "/"+strings.Join(segments[:i], "/"))
	}
	return append(prefixes, "/")
}
