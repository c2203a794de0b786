// Package shell builds the role-aware navigation around every page and
// performs logout.
package shell

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

const (
	// LoggedOutNotice is the login page notice shown after logout.
	LoggedOutNotice = "logged-out"
	// LoggedOutMessage is the confirmation surfaced after logout.
	LoggedOutMessage = "You have been logged out."
)

// Entry is one navigation link.
type Entry struct {
	Label  string
	Path   string
	Active bool
}

// navigation is keyed by role; the two sets are disjoint in what they expose.
var navigation = map[models.Role][]Entry{
	models.RoleAdmin: {
		{Label: "Dashboard", Path: "/"},
		{Label: "Register Student", Path: "/register"},
		{Label: "Attendance Records", Path: "/attendance"},
		{Label: "Admin", Path: "/admin"},
	},
	models.RoleStudent: {
		{Label: "Dashboard", Path: "/"},
		{Label: "Mark Attendance", Path: "/attendance"},
	},
}

// Entries returns a copy of the navigation entries for role. Unknown roles
// get none.
func Entries(role models.Role) []Entry {
	src := navigation[role]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// AuthService is the part of auth.Service the shell reads and drives.
type AuthService interface {
	State() models.AuthState
	Logout(ctx context.Context)
}

// Guard reports whether a session may open a path. *enforcer.Enforcer
// implements it.
type Guard interface {
	Allows(session *models.Session, method, path string) bool
}

// View is everything a page template needs to draw the shell.
type View struct {
	Session   *models.Session
	Entries   []Entry
	Loading   bool
	IsAdmin   bool
	IsStudent bool
}

type Shell struct {
	log   *slog.Logger
	auth  AuthService
	guard Guard
}

// New returns a Shell. guard may be nil, in which case entries are taken from
// the navigation table unfiltered.
func New(logger *slog.Logger, auth AuthService, guard Guard) *Shell {
	return &Shell{
		log:   logger,
		auth:  auth,
		guard: guard,
	}
}

// View reads the current authentication state and returns the navigation for
// it with the entry matching currentPath marked active.
func (s *Shell) View(currentPath string) View {
	state := s.auth.State()
	v := View{
		Session: state.Session,
		Loading: state.Loading,
	}
	if state.Session == nil {
		return v
	}

	v.IsAdmin = state.Session.IsAdmin()
	v.IsStudent = state.Session.IsStudent()

	for _, e := range Entries(state.Session.Role) {
		if s.guard != nil && !s.guard.Allows(state.Session, http.MethodGet, e.Path) {
			s.log.Warn("navigation entry hidden by route policy", "path", e.Path, "role", state.Session.Role)
			continue
		}
		e.Active = e.Path == currentPath
		v.Entries = append(v.Entries, e)
	}
	return v
}

// Logout ends the session and returns the confirmation to show.
func (s *Shell) Logout(ctx context.Context) string {
	s.auth.Logout(ctx)
	return LoggedOutMessage
}

// LogoutHandler logs out and sends the browser to the login page, which
// displays the confirmation.
func (s *Shell) LogoutHandler(loginPath string) http.HandlerFunc {
	target := loginPath + "?" + url.Values{"notice": {LoggedOutNotice}}.Encode()
	return func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Access", logutil.RequestFields(r)...)
		msg := s.Logout(r.Context())
		s.log.Info(msg)
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// NoticeText maps a login page notice to its message.
func NoticeText(notice string) string {
	switch notice {
	case LoggedOutNotice:
		return LoggedOutMessage
	default:
		return ""
	}
}
