package enforcer

import (
	"testing"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	cfg := DefaultConfig()
	admin := &models.Session{ID: "1", Name: "Admin User", Role: models.RoleAdmin}
	student := &models.Session{ID: "2", Name: "Student User", Role: models.RoleStudent}

	tests := []struct {
		name   string
		state  models.AuthState
		policy models.Policy
		target string
		want   Result
	}{
		{"public while loading", models.AuthState{Loading: true}, models.PolicyPublic, "/login",
			Result{Decision: Allowed}},
		{"public without session", models.AuthState{}, models.PolicyPublic, "/login",
			Result{Decision: Allowed}},
		{"protected while loading", models.AuthState{Loading: true}, models.PolicyAuthenticated, "/",
			Result{Decision: Checking}},
		{"loading wins over a present session", models.AuthState{Loading: true, Session: student}, models.PolicyAdmin, "/admin",
			Result{Decision: Checking}},
		{"no session", models.AuthState{}, models.PolicyAuthenticated, "/attendance",
			Result{Decision: Unauthenticated, Redirect: "/login?from=%2Fattendance"}},
		{"no session on admin", models.AuthState{}, models.PolicyAdmin, "/admin",
			Result{Decision: Unauthenticated, Redirect: "/login?from=%2Fadmin"}},
		{"student on admin", models.AuthState{Session: student}, models.PolicyAdmin, "/admin",
			Result{Decision: Forbidden, Redirect: "/"}},
		{"admin on admin", models.AuthState{Session: admin}, models.PolicyAdmin, "/admin",
			Result{Decision: Allowed}},
		{"student on any authenticated", models.AuthState{Session: student}, models.PolicyAuthenticated, "/register",
			Result{Decision: Allowed}},
		{"admin on any authenticated", models.AuthState{Session: admin}, models.PolicyAuthenticated, "/",
			Result{Decision: Allowed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Evaluate(tt.state, tt.policy, tt.target))
		})
	}
}

// a forbidden redirect to the landing path must itself be allowed for every role
func TestEvaluate_ForbiddenRedirectDoesNotLoop(t *testing.T) {
	e := NewEnforcer(logutil.Noop(), nil, nil, nil, nil)
	e.LoadDefaultPolicies()

	for _, role := range []models.Role{models.RoleAdmin, models.RoleStudent} {
		state := models.AuthState{Session: &models.Session{ID: "x", Role: role}}
		landing, _ := e.FindMatchingPolicy(e.LandingPath, "GET")
		assert.Equal(t, Allowed, e.Evaluate(state, landing, e.LandingPath).Decision, "role %s", role)
	}
}

func TestLoginRedirect(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "/login?from=%2Fadmin", cfg.LoginRedirect("/admin"))
	assert.Equal(t, "/login?from=%2Fattendance%3Fdate%3D2024-05-01", cfg.LoginRedirect("/attendance?date=2024-05-01"))
	assert.Equal(t, "/login", cfg.LoginRedirect(""))
	assert.Equal(t, "/login", cfg.LoginRedirect("/login"))
}

func TestSafeReturnPath(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		in   string
		want string
	}{
		{"/admin", "/admin"},
		{"/attendance?date=2024-05-01", "/attendance?date=2024-05-01"},
		{"", "/"},
		{"admin", "/"},
		{"//evil.example.com", "/"},
		{"/\\evil.example.com", "/"},
		{"https://evil.example.com/", "/"},
		{"/login", "/"},
		{"/login?from=/admin", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.SafeReturnPath(tt.in))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "checking", Checking.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "forbidden", Forbidden.String())
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
