package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/internal/sessionstore"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

//
// ---------- fakes ----------
//

type fakeStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	deleteFn func(ctx context.Context, key string) error
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	return f.getFn(ctx, key)
}
func (f *fakeStore) Set(ctx context.Context, key string, value []byte) error {
	return f.setFn(ctx, key, value)
}
func (f *fakeStore) Delete(ctx context.Context, key string) error {
	return f.deleteFn(ctx, key)
}

//
// ---------- helpers ----------
//

func testCredentials(t *testing.T) *Credentials {
	t.Helper()
	creds, err := NewCredentials(DefaultCredentialRecords(), bcrypt.MinCost)
	require.NoError(t, err)
	return creds
}

func newTestService(t *testing.T, store SessionStore, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLoginLatency(0)}, opts...)
	return NewService(logutil.Noop(), store, testCredentials(t), opts...)
}

func newReadyService(t *testing.T, store SessionStore) *Service {
	t.Helper()
	s := newTestService(t, store)
	s.Rehydrate(context.Background())
	return s
}

func memoryStore() sessionstore.Store {
	return sessionstore.NewInMemory(logutil.Noop())
}

//
// ---------- tests ----------
//

func TestNewService_StartsLoading(t *testing.T) {
	s := newTestService(t, memoryStore())

	state := s.State()
	assert.True(t, state.Loading)
	assert.Nil(t, state.Session)
	assert.True(t, s.IsLoading())

	s.Rehydrate(context.Background())
	assert.False(t, s.IsLoading())
	assert.Nil(t, s.CurrentSession())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		secret     string
	}{
		{"unknown identifier", "nobody@example.com", "admin123"},
		{"wrong secret", "admin@example.com", "student123"},
		{"secret wrong case", "admin@example.com", "ADMIN123"},
		{"empty identifier", "", "admin123"},
		{"empty secret", "admin@example.com", ""},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memoryStore()
			s := newReadyService(t, store)

			ok, err := s.Login(context.Background(), tt.identifier, tt.secret)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, s.CurrentSession())

			_, err = store.Get(context.Background(), SessionKey)
			assert.True(t, errors.Is(err, sessionstore.ErrNotFound), "nothing must be persisted")
		})
	}
}

func TestLogin_SeededAccounts(t *testing.T) {
	tests := []struct {
		identifier string
		secret     string
		want       models.Session
		wantJSON   string
	}{
		{"admin@example.com", "admin123", models.Session{ID: "1", Name: "Admin User", Role: models.RoleAdmin},
			`{"id":"1","name":"Admin User","role":"admin"}`},
		{"student@example.com", "student123", models.Session{ID: "2", Name: "Student User", Role: models.RoleStudent},
			`{"id":"2","name":"Student User","role":"student"}`},
		{"Admin@Example.COM", "admin123", models.Session{ID: "1", Name: "Admin User", Role: models.RoleAdmin},
			`{"id":"1","name":"Admin User","role":"admin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			store := memoryStore()
			s := newReadyService(t, store)

			ok, err := s.Login(context.Background(), tt.identifier, tt.secret)
			require.NoError(t, err)
			require.True(t, ok)

			got := s.CurrentSession()
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)

			raw, err := store.Get(context.Background(), SessionKey)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(raw))
			assert.NotContains(t, string(raw), "example.com")
			assert.NotContains(t, string(raw), tt.secret)
		})
	}
}

func TestLogin_FailureKeepsExistingSession(t *testing.T) {
	s := newReadyService(t, memoryStore())
	ctx := context.Background()

	ok, err := s.Login(ctx, "student@example.com", "student123")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Login(ctx, "admin@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NotNil(t, s.CurrentSession())
	assert.Equal(t, "2", s.CurrentSession().ID)
	assert.True(t, s.IsStudent())
	assert.False(t, s.IsAdmin())
}

func TestLogin_StoreWriteFailure(t *testing.T) {
	store := &fakeStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			return nil, sessionstore.NewNotFoundError(key)
		},
		setFn: func(ctx context.Context, key string, value []byte) error {
			return errors.New("disk full")
		},
		deleteFn: func(ctx context.Context, key string) error { return nil },
	}
	s := newReadyService(t, store)

	ok, err := s.Login(context.Background(), "admin@example.com", "admin123")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, ok)
	assert.Nil(t, s.CurrentSession())
	assert.False(t, s.IsLoading())
}

func TestLogin_LoadingWhileInFlight(t *testing.T) {
	s := newTestService(t, memoryStore(), WithLoginLatency(100*time.Millisecond))
	s.Rehydrate(context.Background())
	require.False(t, s.IsLoading())

	var wg sync.WaitGroup
	wg.Add(1)
	var ok bool
	go func() {
		defer wg.Done()
		ok, _ = s.Login(context.Background(), "admin@example.com", "admin123")
	}()

	assert.Eventually(t, s.IsLoading, time.Second, time.Millisecond)
	assert.Nil(t, s.State().Session, "session must not appear before the attempt completes")

	wg.Wait()
	assert.True(t, ok)
	assert.False(t, s.IsLoading())
	assert.True(t, s.IsAdmin())
}

func TestLogin_CancelledDuringLatency(t *testing.T) {
	s := newTestService(t, memoryStore(), WithLoginLatency(time.Minute))
	s.Rehydrate(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ok, err := s.Login(ctx, "admin@example.com", "admin123")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, s.CurrentSession())
	assert.False(t, s.IsLoading())
}

func TestLogout(t *testing.T) {
	store := memoryStore()
	s := newReadyService(t, store)
	ctx := context.Background()

	// without a session
	s.Logout(ctx)
	assert.Nil(t, s.CurrentSession())

	ok, err := s.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	require.True(t, ok)

	s.Logout(ctx)
	assert.Nil(t, s.CurrentSession())
	assert.False(t, s.IsAdmin())
	_, err = store.Get(ctx, SessionKey)
	assert.True(t, errors.Is(err, sessionstore.ErrNotFound))

	// twice
	s.Logout(ctx)
	assert.Nil(t, s.CurrentSession())
}

func TestLogout_StoreFailure(t *testing.T) {
	errUnavailable := errors.New("unavailable")

	tests := []struct {
		name         string
		deleteFails  int  // leading Delete calls that fail
		setFails     bool // Set fails once logged in
		wantDeletes  int
		wantSlot     string // "" means the slot is gone
		wantRestored bool
	}{
		{"delete recovers on retry", 1, false, 2, "", false},
		{"delete keeps failing, slot overwritten", 99, false, deleteAttempts, "null", false},
		{"store unusable", 99, true, deleteAttempts, `{"id":"2","name":"Student User","role":"student"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var deletes int
			var loggedIn bool
			slots := map[string][]byte{}
			store := &fakeStore{
				getFn: func(ctx context.Context, key string) ([]byte, error) {
					mu.Lock()
					defer mu.Unlock()
					v, ok := slots[key]
					if !ok {
						return nil, sessionstore.NewNotFoundError(key)
					}
					return v, nil
				},
				setFn: func(ctx context.Context, key string, value []byte) error {
					mu.Lock()
					defer mu.Unlock()
					if loggedIn && tt.setFails {
						return errUnavailable
					}
					slots[key] = value
					return nil
				},
				deleteFn: func(ctx context.Context, key string) error {
					mu.Lock()
					defer mu.Unlock()
					deletes++
					if deletes <= tt.deleteFails {
						return errUnavailable
					}
					delete(slots, key)
					return nil
				},
			}
			ctx := context.Background()

			s := newReadyService(t, store)
			ok, err := s.Login(ctx, "student@example.com", "student123")
			require.NoError(t, err)
			require.True(t, ok)
			loggedIn = true

			s.Logout(ctx)
			assert.Nil(t, s.CurrentSession())
			assert.Equal(t, tt.wantDeletes, deletes)

			raw, ok := slots[SessionKey]
			if tt.wantSlot == "" {
				assert.False(t, ok)
			} else {
				assert.JSONEq(t, tt.wantSlot, string(raw))
			}

			// restart on the same store
			restarted := newReadyService(t, store)
			assert.False(t, restarted.IsLoading())
			assert.Equal(t, tt.wantRestored, restarted.CurrentSession() != nil)
		})
	}
}

func TestLogin_TrimsIdentifier(t *testing.T) {
	s := newReadyService(t, memoryStore())

	ok, err := s.Login(context.Background(), "  Admin@Example.com\t", "admin123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Admin User", s.CurrentSession().Name)

	ok, err = s.Login(context.Background(), "   ", "admin123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRehydrate_RoundTrip(t *testing.T) {
	store := memoryStore()
	ctx := context.Background()

	first := newReadyService(t, store)
	ok, err := first.Login(ctx, "student@example.com", "student123")
	require.NoError(t, err)
	require.True(t, ok)

	// simulated restart sharing the same store
	second := newTestService(t, store)
	assert.True(t, second.IsLoading())
	second.Rehydrate(ctx)

	assert.False(t, second.IsLoading())
	require.NotNil(t, second.CurrentSession())
	assert.Equal(t, *first.CurrentSession(), *second.CurrentSession())
}

func TestRehydrate_FailsOpen(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not json", `{not json`},
		{"unknown role", `{"id":"9","name":"Root","role":"superuser"}`},
		{"missing id", `{"name":"Ghost","role":"admin"}`},
		{"empty object", `{}`},
		{"json array", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memoryStore()
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, SessionKey, []byte(tt.value)))

			s := newReadyService(t, store)
			assert.False(t, s.IsLoading())
			assert.Nil(t, s.CurrentSession())

			// the stored value is left alone
			raw, err := store.Get(ctx, SessionKey)
			require.NoError(t, err)
			assert.Equal(t, tt.value, string(raw))
		})
	}
}

func TestRehydrate_ReadError(t *testing.T) {
	store := &fakeStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
		setFn:    func(ctx context.Context, key string, value []byte) error { return nil },
		deleteFn: func(ctx context.Context, key string) error { return nil },
	}
	s := newReadyService(t, store)
	assert.False(t, s.IsLoading())
	assert.Nil(t, s.CurrentSession())
}

func TestRehydrate_DoesNotOverrideLogin(t *testing.T) {
	store := memoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, SessionKey, []byte(`{"id":"2","name":"Student User","role":"student"}`)))

	release := make(chan struct{})
	gated := &fakeStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			<-release
			return store.Get(ctx, key)
		},
		setFn:    store.Set,
		deleteFn: store.Delete,
	}
	s := newTestService(t, gated)

	done := make(chan struct{})
	go func() {
		s.Rehydrate(ctx)
		close(done)
	}()

	ok, err := s.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, s.IsLoading(), "rehydration still in flight")

	close(release)
	<-done

	assert.False(t, s.IsLoading())
	assert.True(t, s.IsAdmin())
}

func TestRehydrate_OnlyOnce(t *testing.T) {
	store := memoryStore()
	ctx := context.Background()
	s := newReadyService(t, store)

	require.NoError(t, store.Set(ctx, SessionKey, []byte(`{"id":"1","name":"Admin User","role":"admin"}`)))
	s.Rehydrate(ctx)

	assert.Nil(t, s.CurrentSession())
	assert.False(t, s.IsLoading())
}

func TestCurrentSession_ReturnsCopy(t *testing.T) {
	s := newReadyService(t, memoryStore())
	ok, err := s.Login(context.Background(), "student@example.com", "student123")
	require.NoError(t, err)
	require.True(t, ok)

	got := s.CurrentSession()
	got.Role = models.RoleAdmin

	assert.False(t, s.IsAdmin())
	assert.Equal(t, models.RoleStudent, s.State().Session.Role)
}
