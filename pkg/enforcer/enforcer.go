package enforcer

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/tokenstore"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

// Enforcer guards routes: it holds the route policy table and wraps every
// registered handler so that each request is evaluated against the current
// authentication state before the handler runs.
type Enforcer struct {
	log      *slog.Logger
	Policies map[string]map[string]models.Policy // e.g route: {GET: PolicyAuthenticated, "*": PolicyAdmin}
	handlers map[string]map[string]http.Handler  // path -> method -> handler internal mapping
	router   Router                              // used for middlewares and creating routes
	auth     AuthState
	token    TokenParser
	Config
	mu sync.RWMutex // mutex to protect policies and handlers maps
}

type Config struct {
	LoginPath      string        // where unauthenticated page requests are sent
	LandingPath    string        // where forbidden page requests are sent
	ReturnParam    string        // query parameter carrying the originally requested path
	LoadingRetry   time.Duration // how soon clients should retry while the session is loading
	LoadingHandler http.Handler  // renders the placeholder shown while the session is loading
	APIPrefix      string        // requests under this prefix receive JSON errors and need a bearer token
}

// AuthState provides the authentication snapshot each request is evaluated against.
type AuthState interface {
	State() models.AuthState
}

// TokenParser verifies API bearer tokens.
type TokenParser interface {
	ParseAccessToken(tokenStr string) (*tokenstore.AccessToken, error)
}

// NewEnforcer initializes and returns a new Enforcer instance.
//
// Params:
//   - logger: a slog.Logger for structured logging
//   - router: an implementation of the Router interface used to register routes
//   - auth: the source of the authentication state, usually *auth.Service
//   - token: verifies bearer tokens on API requests, may be nil when no API routes are served
//   - config: redirect targets and loading behaviour, nil for defaults
//
// Example:
//
//	enforcer := NewEnforcer(logger, mux, authService, tokens, nil)
func NewEnforcer(logger *slog.Logger, router Router, auth AuthState, token TokenParser, config *Config) *Enforcer {
	if config == nil {
		config = newDefaultConfig()
	}

	return &Enforcer{
		log:      logger,
		Policies: make(map[string]map[string]models.Policy),
		handlers: make(map[string]map[string]http.Handler),
		router:   router,
		auth:     auth,
		token:    token,
		Config:   *config,
	}
}

// new default config returns a pointer to Config with the default options
func newDefaultConfig() *Config {
	return &Config{
		LoginPath:    "/login",
		LandingPath:  "/",
		ReturnParam:  "from",
		LoadingRetry: time.Second,
		APIPrefix:    "/api/",
	}
}

// DefaultConfig returns the configuration used when NewEnforcer receives nil.
func DefaultConfig() Config {
	return *newDefaultConfig()
}

// SetPolicy defines the access rule for a resource path and HTTP method.
// Use "*" as the method to apply the policy to all methods for that path.
func (e *Enforcer) SetPolicy(resourcePath string, method string, policy models.Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}
	if _, ok := e.Policies[resourcePath]; !ok {
		e.Policies[resourcePath] = make(map[string]models.Policy)
	}
	e.Policies[resourcePath][strings.ToUpper(method)] = policy // Store method in uppercase
}

// FindMatchingPolicy finds the most specific policy for a given resource path and method.
// It prioritizes exact method matches over wildcard method matches. A policy set on
// "/" applies to the root path only. Paths without any policy are public.
func (e *Enforcer) FindMatchingPolicy(resourcePath, method string) (models.Policy, bool) {
	method = strings.ToUpper(method)

	pathsToCheck := buildPrefixes(resourcePath)
	if len(pathsToCheck) > 1 {
		pathsToCheck = pathsToCheck[:len(pathsToCheck)-1]
	}

	e.log.Debug("enforcer is finding matching policy",
		"resource path", resourcePath,
		"method", method,
		"paths to check", pathsToCheck,
	)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, p := range pathsToCheck {
		if methodPolicies, ok := e.Policies[p]; ok {

			// 1. Exact method match
			if policy, methodOk := methodPolicies[method]; methodOk {
				return policy, true
			}

			// 2. Wildcard match
			if policy, anyMethodOk := methodPolicies["*"]; anyMethodOk {
				return policy, true
			}
		}
	}

	return models.PolicyPublic, false
}

// buildPrefixes returns a list of paths to check from most specific to least specific.
// For "/a/b/c" it returns ["/a/b/c", "/a/b", "/a", "/"].
func buildPrefixes(path string) []string {
	if path == "" || path == "/" {
		return []string{"/"}
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")

	// Handle the case where path was only slashes
	if len(segments) == 1 && segments[0] == "" {
		return []string{"/"}
	}

	prefixes := make([]string, 0, len(segments)+1)

	for i := len(segments); i > 0; i-- {
		prefixes = append(prefixes, "/"+strings.Join(segments[:i], "/"))
	}

	// Always ensure root "/" is last
	prefixes = append(prefixes, "/")

	return prefixes
}
