package enforcer

import (
	"net/url"
	"strings"

	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

// Decision is the outcome of evaluating a navigation attempt.
type Decision int

const (
	// Checking means the session is still being established; show a placeholder.
	Checking Decision = iota
	// Unauthenticated means a protected route was requested without a session.
	Unauthenticated
	// Forbidden means the session lacks the role the route requires.
	Forbidden
	// Allowed means the route may render.
	Allowed
)

func (d Decision) String() string {
	switch d {
	case Checking:
		return "checking"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Allowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Result is a Decision plus the redirect target it implies, if any.
type Result struct {
	Decision Decision
	Redirect string
}

// Evaluate decides a navigation attempt to target under policy. It has no
// side effects; the caller acts on the result.
//
// Public routes are allowed without consulting the session. Otherwise a
// loading state yields Checking, a missing session yields Unauthenticated
// with a redirect to the login path carrying target, and a role mismatch
// yields Forbidden with a redirect to the landing path.
func (c Config) Evaluate(state models.AuthState, policy models.Policy, target string) Result {
	switch {
	case policy.Public:
		return Result{Decision: Allowed}
	case state.Loading:
		return Result{Decision: Checking}
	case state.Session == nil:
		return Result{Decision: Unauthenticated, Redirect: c.LoginRedirect(target)}
	case !policy.Permits(state.Session):
		return Result{Decision: Forbidden, Redirect: c.LandingPath}
	default:
		return Result{Decision: Allowed}
	}
}

// LoginRedirect returns the login path with target attached as the return path.
func (c Config) LoginRedirect(target string) string {
	if target == "" || target == c.LoginPath {
		return c.LoginPath
	}
	return c.LoginPath + "?" + url.Values{c.ReturnParam: {target}}.Encode()
}

// SafeReturnPath returns from if it is a local path other than the login
// page, and the landing path otherwise. It keeps a crafted return path from
// sending the browser to another site after login.
func (c Config) SafeReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return c.LandingPath
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == c.LoginPath {
		return c.LandingPath
	}
	return from
}
