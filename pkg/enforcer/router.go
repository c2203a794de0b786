package enforcer

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
)

// Router is anything routes can be registered on, usually *http.ServeMux.
type Router interface {
	Handle(pattern string, handler http.Handler)
}

// Handle registers handler for route, guarded by the policy table.
//
//	"/attendance"        any method
//	"GET /attendance"    GET only (HEAD falls back to it)
//
// Paths are kept exactly as written, the same way policies and the router
// compare them. Registering the same method and path twice is an error.
func (e *Enforcer) Handle(route string, handler http.Handler) error {
	e.log.Debug("enforcer handling route", "route", route)
	if handler == nil {
		e.log.Error("cannot register nil handler for route", "route", route)
		return fmt.Errorf("cannot register nil handler for route %q", route)
	}

	method, path, err := parseRoute(route)
	if err != nil {
		return logutil.LogAndWrapErr(e.log, "cannot register route", err, "route", route)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	byMethod, exists := e.handlers[path]
	if !exists {
		byMethod = make(map[string]http.Handler)
		e.handlers[path] = byMethod
		e.router.Handle(path, e.dispatcher(path))
	}

	if _, exists := byMethod[method]; exists {
		return logutil.LogAndWrapErr(e.log, "attempted to add duplicate path to enforcer",
			NewDuplicatePathAndMethodError(path, method))
	}
	byMethod[method] = handler
	return nil
}

func (e *Enforcer) HandleFunc(route string, handlerFunc http.HandlerFunc) error {
	return e.Handle(route, handlerFunc)
}

// dispatcher is registered once per path and picks the handler for the
// request method at serve time.
func (e *Enforcer) dispatcher(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer logutil.NewTimingLogger(e.log, time.Now(), "access handled", logutil.RequestFields(r)...)()

		h, allowed := e.lookup(path, r.Method)
		if h == nil {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			e.respondMethodNotAllowed(w, r)
			return
		}
		e.WrapHandler(h).ServeHTTP(w, r)
	}
}

// lookup returns the handler for method on path. When there is none it
// returns the methods that are registered instead.
func (e *Enforcer) lookup(path, method string) (http.Handler, []string) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byMethod := e.handlers[path]
	if h, ok := byMethod[method]; ok {
		return h, nil
	}
	if method == http.MethodHead {
		if h, ok := byMethod[http.MethodGet]; ok {
			return h, nil
		}
	}
	if h, ok := byMethod[""]; ok {
		return h, nil
	}

	allowed := make([]string, 0, len(byMethod)+1)
	for m := range byMethod {
		allowed = append(allowed, m)
		if m == http.MethodGet {
			allowed = append(allowed, http.MethodHead)
		}
	}
	slices.Sort(allowed)
	return nil, allowed
}

// parseRoute splits "METHOD /path" or "/path". The method is upper-cased,
// the path is returned unchanged.
func parseRoute(route string) (method, path string, err error) {
	parts := strings.Fields(route)
	switch len(parts) {
	case 1:
		path = parts[0]
	case 2:
		method, path = strings.ToUpper(parts[0]), parts[1]
	default:
		return "", "", fmt.Errorf("invalid route %q: want \"METHOD /path\" or \"/path\"", route)
	}
	if !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("invalid route %q: path must start with /", route)
	}
	return method, path, nil
}

var ErrDuplicatePathAndMethod = &DuplicatePathAndMethodError{}

// DuplicatePathAndMethodError is returned when a route is registered twice.
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
	method := e.Method
	if method == "" {
		method = "any"
	}
	return fmt.Sprintf("enforcer: %s %s is already registered", method, e.Path)
}

func (e *DuplicatePathAndMethodError) Is(target error) bool {
	_, ok := target.(*DuplicatePathAndMethodError)
	return ok
}
