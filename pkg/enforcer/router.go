package enforcer

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ryan-Har/commonground/internal/logutil"
)

// Router defines an abstraction for registering routes.
// *http.ServeMux satisfies it, and path wildcards such as {id} reach the
// handler through r.PathValue.
type Router interface {
	Handle(pattern string, handler http.Handler)
}

// Handle registers an HTTP handler with the router for the given route pattern.
// The route string can be either:
//
//	"/path"          // matches all HTTP methods for /path
//	"METHOD /path"   // matches only HTTP requests with METHOD (GET, POST, etc.)
//
// The path is registered with the router once; requests are dispatched by
// method and wrapped with the middlewares chosen by the policies in force at
// request time. Registering the same method and path twice returns a
// *DuplicatePathAndMethodError.
func (e *Enforcer) Handle(route string, handler http.Handler) error {
	e.log.Debug("enforcer handling route", "route", route)
	if handler == nil {
		e.log.Error("cannot register nil handler for route", "route", route)
		return fmt.Errorf("cannot register nil handler for route %q", route)
	}

	method, path := parseRoute(route)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[string]map[string]http.Handler)
	}

	if _, exists := e.handlers[path][method]; exists {
		return logutil.LogAndWrapErr(e.log, "attempted to add duplicate path to enforcer",
			NewDuplicatePathAndMethodError(path, method))
	}

	if _, exists := e.handlers[path]; !exists {
		e.handlers[path] = make(map[string]http.Handler)
		e.router.Handle(path, e.dispatch(path))
	}

	e.handlers[path][method] = handler
	return nil
}

// HandleFunc is a convenience wrapper around Handle that accepts
// an http.HandlerFunc instead of a full http.Handler.
func (e *Enforcer) HandleFunc(route string, handlerFunc http.HandlerFunc) error {
	return e.Handle(route, handlerFunc)
}

func (e *Enforcer) dispatch(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer logutil.NewTimingLogger(e.log, time.Now(), "access handled", "method", r.Method, "path", r.URL.Path, "remote_ip", r.RemoteAddr, "user_agent", r.UserAgent())()

		e.mu.RLock()
		methodHandlers := e.handlers[path]
		h, ok := methodHandlers[r.Method]
		if !ok && r.Method == http.MethodHead {
			h, ok = methodHandlers[http.MethodGet]
		}
		if !ok {
			// registered without a method
			h, ok = methodHandlers[""]
		}
		e.mu.RUnlock()

		if !ok {
			e.respondMethodNotAllowed(w)
			return
		}
		e.WrapHandler(path, r.Method, h).ServeHTTP(w, r)
	})
}

// parseRoute parses a route string into method and path components.
// Valid formats are:
//
//	"METHOD /path"   e.g. "GET /admin"
//	"/path"          e.g. "/admin"
//
// If the method is omitted, the returned method string is empty,
// meaning the route applies to all HTTP methods.
func parseRoute(route string) (method, path string) {
	parts := strings.Fields(route)
	switch len(parts) {
	case 0:
		return "", "/"
	case 1:
		if strings.HasPrefix(parts[0], "/") {
			return "", parts[0]
		}
		// method but no path
		return strings.ToUpper(parts[0]), "/"
	default:
		return strings.ToUpper(parts[0]), parts[1]
	}
}

var ErrDuplicatePathAndMethod = &DuplicatePathAndMethodError{}

type DuplicatePathAndMethodError struct {
	Method string
	Path   string
}

func NewDuplicatePathAndMethodError(path, method string) *DuplicatePathAndMethodError {
	return &DuplicatePathAndMethodError{
		Method: method,
		Path:   path,
	}
}

func (e *DuplicatePathAndMethodError) Error() string {
	return fmt.Sprintf("enforcer: duplicate path: %s and method: %s attempted", e.Path, e.Method)
}

func (e *DuplicatePathAndMethodError) Is(target error) bool {
	_, ok := target.(*DuplicatePathAndMethodError)
	return ok
}
