package shell

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/enforcer"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	state      models.AuthState
	logoutFn   func(ctx context.Context)
	logoutCall int
}

func (f *fakeAuth) State() models.AuthState { return f.state }

func (f *fakeAuth) Logout(ctx context.Context) {
	f.logoutCall++
	if f.logoutFn != nil {
		f.logoutFn(ctx)
	}
	f.state = models.AuthState{}
}

func defaultGuard() *enforcer.Enforcer {
	e := enforcer.NewEnforcer(logutil.Noop(), nil, nil, nil, nil)
	e.LoadDefaultPolicies()
	return e
}

func paths(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestEntries(t *testing.T) {
	assert.Equal(t, []string{"/", "/register", "/attendance", "/admin"}, paths(Entries(models.RoleAdmin)))
	assert.Equal(t, []string{"/", "/attendance"}, paths(Entries(models.RoleStudent)))
	assert.Empty(t, Entries(models.Role("guest")))

	// callers get a copy
	e := Entries(models.RoleStudent)
	e[0].Label = "changed"
	assert.Equal(t, "Dashboard", Entries(models.RoleStudent)[0].Label)
}

// every entry in the table must be reachable by the role that sees it
func TestEntries_ConsistentWithPolicies(t *testing.T) {
	guard := defaultGuard()
	for role := range navigation {
		s := &models.Session{ID: "x", Role: role}
		for _, e := range Entries(role) {
			assert.True(t, guard.Allows(s, http.MethodGet, e.Path), "%s cannot open %s", role, e.Path)
		}
	}
}

func TestView(t *testing.T) {
	tests := []struct {
		name        string
		state       models.AuthState
		current     string
		wantPaths   []string
		wantActive  string
		wantAdmin   bool
		wantStudent bool
	}{
		{
			name:       "admin",
			state:      models.AuthState{Session: &models.Session{ID: "1", Name: "Admin User", Role: models.RoleAdmin}},
			current:    "/admin",
			wantPaths:  []string{"/", "/register", "/attendance", "/admin"},
			wantActive: "/admin",
			wantAdmin:  true,
		},
		{
			name:        "student",
			state:       models.AuthState{Session: &models.Session{ID: "2", Name: "Student User", Role: models.RoleStudent}},
			current:     "/",
			wantPaths:   []string{"/", "/attendance"},
			wantActive:  "/",
			wantStudent: true,
		},
		{
			name:    "signed out",
			state:   models.AuthState{},
			current: "/login",
		},
		{
			name:    "loading",
			state:   models.AuthState{Loading: true},
			current: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logutil.Noop(), &fakeAuth{state: tt.state}, defaultGuard())
			v := s.View(tt.current)

			assert.Equal(t, tt.state.Session, v.Session)
			assert.Equal(t, tt.state.Loading, v.Loading)
			assert.Equal(t, tt.wantAdmin, v.IsAdmin)
			assert.Equal(t, tt.wantStudent, v.IsStudent)
			if tt.wantPaths == nil {
				assert.Empty(t, v.Entries)
				return
			}
			assert.Equal(t, tt.wantPaths, paths(v.Entries))
			for _, e := range v.Entries {
				assert.Equal(t, e.Path == tt.wantActive, e.Active, e.Path)
			}
		})
	}
}

func TestView_StudentNeverSeesAdminEntries(t *testing.T) {
	s := New(logutil.Noop(), &fakeAuth{state: models.AuthState{Session: &models.Session{ID: "2", Role: models.RoleStudent}}}, nil)
	for _, e := range s.View("/").Entries {
		assert.NotEqual(t, "/admin", e.Path)
		assert.NotEqual(t, "/register", e.Path)
	}
}

type denyAll struct{}

func (denyAll) Allows(*models.Session, string, string) bool { return false }

func TestView_GuardFiltersEntries(t *testing.T) {
	s := New(logutil.Noop(), &fakeAuth{state: models.AuthState{Session: &models.Session{ID: "1", Role: models.RoleAdmin}}}, denyAll{})
	assert.Empty(t, s.View("/").Entries)
}

func TestLogout_NextViewIsEmpty(t *testing.T) {
	auth := &fakeAuth{state: models.AuthState{Session: &models.Session{ID: "1", Role: models.RoleAdmin}}}
	s := New(logutil.Noop(), auth, defaultGuard())
	require.NotEmpty(t, s.View("/").Entries)

	assert.Equal(t, LoggedOutMessage, s.Logout(context.Background()))
	assert.Equal(t, 1, auth.logoutCall)

	v := s.View("/")
	assert.Nil(t, v.Session)
	assert.Empty(t, v.Entries)
	assert.False(t, v.IsAdmin)
}

func TestLogoutHandler(t *testing.T) {
	auth := &fakeAuth{state: models.AuthState{Session: &models.Session{ID: "2", Role: models.RoleStudent}}}
	s := New(logutil.Noop(), auth, nil)

	rec := httptest.NewRecorder()
	s.LogoutHandler("/login").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?notice=logged-out", rec.Header().Get("Location"))
	assert.Equal(t, 1, auth.logoutCall)
	assert.Nil(t, auth.State().Session)
}

func TestNoticeText(t *testing.T) {
	assert.Equal(t, LoggedOutMessage, NoticeText(LoggedOutNotice))
	assert.Empty(t, NoticeText("anything-else"))
}
