package builtins

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Haymar136/faceflow-student-hub/pkg/attendance"
	"github.com/Haymar136/faceflow-student-hub/pkg/enforcer"
	"github.com/Haymar136/faceflow-student-hub/pkg/shell"
	"github.com/Haymar136/faceflow-student-hub/web/templates"
)

type Builtin struct {
	enforcer *enforcer.Enforcer
	shell    *shell.Shell
	handler  Handler
}

// New initializes and returns a new Builtin instance
func New(logger *slog.Logger, enforcer *enforcer.Enforcer, auth AuthService, backend *attendance.Backend, token Tokens, pages *templates.Templates) *Builtin {
	sh := shell.New(logger, auth, enforcer)
	return &Builtin{
		enforcer: enforcer,
		shell:    sh,
		handler:  *newHandler(logger, auth, backend, token, sh, pages, enforcer.Config),
	}
}

// Shell returns the navigation shell the pages are rendered with.
func (b *Builtin) Shell() *shell.Shell {
	return b.shell
}

// LoadAllRoutes loads all default route groups (login, dashboard, attendance, admin, api).
// If any group fails to register its routes, the error(s) will be combined
// and returned as a single error via errors.Join.
func (b *Builtin) LoadAllRoutes() error {
	errs := []error{
		b.LoadDefaultLoginRoutes(),
		b.LoadDefaultDashboardRoute(),
		b.LoadDefaultRegisterRoutes(),
		b.LoadDefaultAttendanceRoutes(),
		b.LoadDefaultAdminRoutes(),
		b.LoadDefaultAPIRoutes(),
		b.LoadNotFoundRoute(),
	}

	return errors.Join(errs...)
}

// LoadAllPolicies installs the console's route policy table on the enforcer.
func (b *Builtin) LoadAllPolicies() {
	b.enforcer.LoadDefaultPolicies()
}

// LoadDefaultLoginRoutes configures the HTTP handlers for signing in and out.
//
// The login page stays reachable with a live session. A successful POST
// redirects to the page the user was originally sent away from.
func (b *Builtin) LoadDefaultLoginRoutes() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"GET /login":   b.handler.handleLoginGet(),
		"POST /login":  b.handler.handleLoginPost(),
		"POST /logout": b.shell.LogoutHandler(b.enforcer.LoginPath),
	})
}

// LoadDefaultDashboardRoute serves the landing page on the exact root path.
func (b *Builtin) LoadDefaultDashboardRoute() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"GET /{$}": b.handler.handleDashboardGet(),
	})
}

func (b *Builtin) LoadDefaultRegisterRoutes() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"GET /register":  b.handler.handleRegisterGet(),
		"POST /register": b.handler.handleRegisterPost(),
	})
}

func (b *Builtin) LoadDefaultAttendanceRoutes() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"GET /attendance":            b.handler.handleAttendanceGet(),
		"POST /attendance/recognize": b.handler.handleRecognizePost(),
	})
}

// LoadDefaultAdminRoutes configures the admin dashboard: the student roster,
// report export and the roster download.
func (b *Builtin) LoadDefaultAdminRoutes() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"GET /admin":         b.handler.handleAdminGet(),
		"POST /admin/export": b.handler.handleAdminExportPost(),
		"GET /admin/roster":  b.handler.handleAdminRosterGet(),
	})
}

func (b *Builtin) LoadDefaultAPIRoutes() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"POST /api/v1/login":     b.handler.handleAPILoginPost(),
		"POST /api/v1/logout":    b.handler.handleAPILogoutPost(),
		"GET /api/v1/session":    b.handler.handleAPISessionGet(),
		"GET /api/v1/attendance": b.handler.handleAPIAttendanceGet(),
		"POST /api/v1/recognize": b.handler.handleAPIRecognizePost(),
		"POST /api/v1/students":  b.handler.handleAPIStudentsPost(),
		"GET /api/v1/students":   b.handler.handleAPIStudentsGet(),
	})
}

// LoadNotFoundRoute catches every path no other route matches.
func (b *Builtin) LoadNotFoundRoute() error {
	return b.registerRoutes(map[string]http.HandlerFunc{
		"/": b.handler.handleNotFound(),
	})
}

// registerRoutes registers a set of HTTP routes with their corresponding handlers.
// It accepts a map where the keys are route patterns (e.g., "GET /login")
// and the values are the associated http.HandlerFunc implementations.
//
// If any calls to enforcer.Handle fail, all resulting errors are collected
// and returned as a single error using errors.Join. If all registrations succeed,
// the returned error will be nil.
//
// Example:
//
//	err := b.registerRoutes(map[string]http.HandlerFunc{
//	    "GET /login":  b.handleLoginGet(),
//	    "POST /login": b.handleLoginPost(),
//	})
func (b *Builtin) registerRoutes(routes map[string]http.HandlerFunc) error {
	var errs []error
	for pattern, handler := range routes {
		if err := b.enforcer.Handle(pattern, handler); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
