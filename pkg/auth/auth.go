// Package auth owns the console's single live session: it rehydrates it from
// the session store at start-up, establishes it on login and destroys it on
// logout.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/internal/sessionstore"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

// SessionKey is the session store slot holding the serialized session.
const SessionKey = "user"

// clearedSlot marks a session slot whose delete failed during logout.
var clearedSlot = []byte("null")

const deleteAttempts = 2

// DefaultLoginLatency is the simulated round trip of a login attempt.
const DefaultLoginLatency = time.Second

// SessionStore is the subset of sessionstore.Store the service needs.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Service holds the authentication state of the console.
//
// A new Service reports IsLoading until Rehydrate has run, so that route
// guards never decide on a session that has not been read back yet.
type Service struct {
	log              *slog.Logger
	store            SessionStore
	creds            *Credentials
	loginLatency     time.Duration
	rehydrateLatency time.Duration

	mu         sync.RWMutex
	session    *models.Session
	pending    int  // operations currently holding the loading flag
	touched    bool // a login or logout has happened
	rehydrated sync.Once
}

type Option func(*Service)

// WithLoginLatency sets the simulated delay of Login.
func WithLoginLatency(d time.Duration) Option {
	return func(s *Service) { s.loginLatency = d }
}

// WithRehydrateLatency sets a delay before the session store is read on start-up.
func WithRehydrateLatency(d time.Duration) Option {
	return func(s *Service) { s.rehydrateLatency = d }
}

// NewService returns a Service in the loading state with no session.
func NewService(logger *slog.Logger, store SessionStore, creds *Credentials, opts ...Option) *Service {
	s := &Service{
		log:          logger,
		store:        store,
		creds:        creds,
		loginLatency: DefaultLoginLatency,
		pending:      1, // released by Rehydrate
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rehydrate restores a persisted session, if any, and ends the initial
// loading window. Any failure to read or decode the stored value leaves the
// service logged out. Only the first call has an effect.
func (s *Service) Rehydrate(ctx context.Context) {
	s.rehydrated.Do(func() {
		defer logutil.NewTimingLogger(s.log, time.Now(), "session rehydration finished")()

		restored := s.readStoredSession(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending--
		if restored == nil {
			return
		}
		if s.touched {
			s.log.Debug("discarding rehydrated session, a login or logout happened first")
			return
		}
		s.session = restored
		s.log.Info("session restored", "id", restored.ID, "role", restored.Role)
	})
}

func (s *Service) readStoredSession(ctx context.Context) *models.Session {
	if err := sleepCtx(ctx, s.rehydrateLatency); err != nil {
		s.log.Info("session rehydration cancelled", "error", err)
		return nil
	}

	raw, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			s.log.Debug("no stored session")
		} else {
			s.log.Warn("unable to read stored session, continuing logged out", "err", err)
		}
		return nil
	}

	if bytes.Equal(bytes.TrimSpace(raw), clearedSlot) {
		s.log.Debug("stored session was cleared by a logout")
		return nil
	}

	var stored models.Session
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn("stored session is corrupt, continuing logged out", "err", err)
		return nil
	}
	if err := stored.Validate(); err != nil {
		s.log.Warn("stored session is invalid, continuing logged out", "err", err)
		return nil
	}
	return &stored
}

// Login checks the identifier and secret against the credential table.
// It returns false with a nil error for unknown or mismatched credentials,
// leaving any current session untouched. A non-nil error means the attempt
// could not be completed.
func (s *Service) Login(ctx context.Context, identifier, secret string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return false, nil
	}

	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	if err := sleepCtx(ctx, s.loginLatency); err != nil {
		return false, logutil.DebugAndWrapErr(s.log, "login cancelled", err)
	}

	session, ok := s.creds.Match(identifier, secret)
	if !ok {
		s.log.Info("login rejected")
		return false, nil
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return false, logutil.LogAndWrapErr(s.log, "failed to encode session",
			models.NewTransformationError(err.Error()))
	}

	// the credential check has passed, the attempt runs to completion
	if err := s.store.Set(context.WithoutCancel(ctx), SessionKey, raw); err != nil {
		return false, logutil.LogAndWrapErr(s.log, "failed to persist session", err)
	}

	s.mu.Lock()
	s.session = &session
	s.touched = true
	s.mu.Unlock()

	s.log.Info("login succeeded", "id", session.ID, "role", session.Role)
	return true, nil
}

// Logout clears the session in memory and in the session store.
// It is safe to call without a live session.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	prev := s.session
	s.session = nil
	s.touched = true
	s.mu.Unlock()

	s.clearStoredSession(context.WithoutCancel(ctx))
	if prev != nil {
		s.log.Info("logged out", "id", prev.ID)
	}
}

// clearStoredSession deletes the persisted session. When the slot cannot be
// deleted it is overwritten with clearedSlot, which Rehydrate treats as
// logged out.
func (s *Service) clearStoredSession(ctx context.Context) {
	var err error
	for attempt := 1; attempt <= deleteAttempts; attempt++ {
		err = s.store.Delete(ctx, SessionKey)
		if err == nil || errors.Is(err, sessionstore.ErrNotFound) {
			return
		}
		s.log.Warn("failed to delete stored session", "attempt", attempt, "err", err)
	}

	if err := s.store.Set(ctx, SessionKey, clearedSlot); err != nil {
		s.log.Error("stored session could not be cleared and may be restored on restart", "err", err)
		return
	}
	s.log.Info("stored session overwritten after failed delete")
}

// State returns a consistent snapshot of the loading flag and session.
func (s *Service) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.AuthState{
		Loading: s.pending > 0,
		Session: copySession(s.session),
	}
}

// CurrentSession returns a copy of the live session, or nil.
func (s *Service) CurrentSession() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

func (s *Service) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

func (s *Service) IsAdmin() bool {
	return s.CurrentSession().IsAdmin()
}

func (s *Service) IsStudent() bool {
	return s.CurrentSession().IsStudent()
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
