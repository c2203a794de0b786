// Package faceflow assembles the FaceFlow student attendance console: the
// session store, authentication, the route guard, the attendance backend and
// the page and API routes.
package faceflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Haymar136/faceflow-student-hub/internal/config"
	"github.com/Haymar136/faceflow-student-hub/internal/sessionstore"
	"github.com/Haymar136/faceflow-student-hub/internal/tokenstore"
	"github.com/Haymar136/faceflow-student-hub/pkg/attendance"
	"github.com/Haymar136/faceflow-student-hub/pkg/auth"
	"github.com/Haymar136/faceflow-student-hub/pkg/builtins"
	"github.com/Haymar136/faceflow-student-hub/pkg/enforcer"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/Haymar136/faceflow-student-hub/web/templates"
)

type FaceFlow struct {
	logger     *slog.Logger
	config     config.Config
	Auth       *auth.Service
	Enforcer   *enforcer.Enforcer
	Attendance *attendance.Backend
	Tokens     *tokenstore.TokenStore
	Builtin    *builtins.Builtin

	// Hold information to initialize services after configuration
	store       sessionstore.Store
	ownsStore   bool
	router      enforcer.Router
	credentials []models.CredentialRecord
}

type Option func(*FaceFlow)

func WithLogger(l *slog.Logger) Option {
	return func(f *FaceFlow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithConfig replaces the default configuration. The caller is expected to
// have validated it.
func WithConfig(cfg config.Config) Option {
	return func(f *FaceFlow) {
		f.config = cfg
	}
}

// WithSessionStore uses store instead of opening the configured backend.
// The caller keeps ownership and closes it.
func WithSessionStore(store sessionstore.Store) Option {
	return func(f *FaceFlow) {
		f.store = store
	}
}

// WithRouter registers the routes on r instead of a new http.ServeMux.
func WithRouter(r enforcer.Router) Option {
	return func(f *FaceFlow) {
		f.router = r
	}
}

// WithCredentials replaces the credential table.
func WithCredentials(records []models.CredentialRecord) Option {
	return func(f *FaceFlow) {
		f.credentials = records
	}
}

// New builds a console. The returned console reports the loading state until
// Rehydrate has run.
func New(ctx context.Context, opts ...Option) (*FaceFlow, error) {
	ff := &FaceFlow{
		logger: slog.Default(),
		config: config.Default(),
	}

	for _, opt := range opts {
		opt(ff)
	}

	ff.logger.Info("starting faceflow")

	if ff.store == nil {
		store, err := sessionstore.New(ctx, ff.logger, ff.config.SessionStore())
		if err != nil {
			return nil, fmt.Errorf("unable to open session store: %w", err)
		}
		ff.store = store
		ff.ownsStore = true
	}
	ff.logger.Debug("session store ready", "backend", ff.config.Store.Backend)

	if err := ff.load(); err != nil {
		ff.Close()
		return nil, err
	}
	ff.logger.Info("faceflow routes loaded")

	return ff, nil
}

func (ff *FaceFlow) load() error {
	records := ff.credentials
	if records == nil {
		records = auth.DefaultCredentialRecords()
		if path := ff.config.Auth.CredentialsFile; path != "" {
			loaded, err := auth.LoadCredentialRecords(path)
			if err != nil {
				return fmt.Errorf("unable to load credentials: %w", err)
			}
			records = loaded
		}
	}
	creds, err := auth.NewCredentials(records, ff.config.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	ff.Auth = auth.NewService(ff.logger, ff.store, creds,
		auth.WithLoginLatency(ff.config.Auth.LoginLatency),
		auth.WithRehydrateLatency(ff.config.Auth.RehydrateLatency),
	)

	secret := ff.config.Token.Secret
	if secret == "" {
		if secret, err = tokenstore.GenerateSecret(); err != nil {
			return fmt.Errorf("unable to generate token secret: %w", err)
		}
		ff.logger.Warn("no token secret configured, API tokens will not survive a restart")
	}
	if ff.Tokens, err = tokenstore.New(ff.logger, secret, ff.config.Token.TTL); err != nil {
		return fmt.Errorf("unable to create token store: %w", err)
	}

	ff.Attendance = attendance.New(ff.logger, attendance.WithLatency(ff.config.Attendance.Latency))

	pages, err := templates.Parse()
	if err != nil {
		return fmt.Errorf("unable to parse templates: %w", err)
	}

	if ff.router == nil {
		ff.router = http.NewServeMux()
	}
	guard := enforcer.DefaultConfig()
	guard.LoadingHandler = builtins.LoadingHandler(ff.logger, pages)
	ff.Enforcer = enforcer.NewEnforcer(ff.logger, ff.router, ff.Auth, ff.Tokens, &guard)

	ff.Builtin = builtins.New(ff.logger, ff.Enforcer, ff.Auth, ff.Attendance, ff.Tokens, pages)
	ff.Builtin.LoadAllPolicies()
	return ff.Builtin.LoadAllRoutes()
}

// Handler returns the router the routes were registered on, when it is an
// http.Handler.
func (ff *FaceFlow) Handler() http.Handler {
	h, _ := ff.router.(http.Handler)
	return h
}

// Rehydrate restores the persisted session and ends the loading state.
func (ff *FaceFlow) Rehydrate(ctx context.Context) {
	ff.Auth.Rehydrate(ctx)
}

// Close releases the session store if New opened it.
func (ff *FaceFlow) Close() error {
	if !ff.ownsStore || ff.store == nil {
		return nil
	}
	err := ff.store.Close()
	ff.store = nil
	if err != nil {
		return fmt.Errorf("close session store: %w", err)
	}
	return nil
}
