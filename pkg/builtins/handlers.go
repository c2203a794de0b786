package builtins

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/tokenstore"
	"github.com/Haymar136/faceflow-student-hub/pkg/attendance"
	"github.com/Haymar136/faceflow-student-hub/pkg/enforcer"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/Haymar136/faceflow-student-hub/pkg/shell"
	"github.com/Haymar136/faceflow-student-hub/web/templates"
)

// AuthService is the part of auth.Service the handlers use.
type AuthService interface {
	Login(ctx context.Context, identifier, secret string) (bool, error)
	Logout(ctx context.Context)
	State() models.AuthState
	CurrentSession() *models.Session
}

// Tokens issues and reads API bearer tokens.
type Tokens interface {
	IssueToken(session models.Session) (string, time.Time, error)
	ParseAccessToken(tokenStr string) (*tokenstore.AccessToken, error)
	Duration() time.Duration
}

type Handler struct {
	auth       AuthService
	attendance *attendance.Backend
	token      Tokens
	shell      *shell.Shell
	pages      *templates.Templates
	guard      enforcer.Config
	now        func() time.Time
	log        *slog.Logger
}

func newHandler(logger *slog.Logger, auth AuthService, backend *attendance.Backend, token Tokens, sh *shell.Shell, pages *templates.Templates, guard enforcer.Config) *Handler {
	return &Handler{
		auth:       auth,
		attendance: backend,
		token:      token,
		shell:      sh,
		pages:      pages,
		guard:      guard,
		now:        time.Now,
		log:        logger,
	}
}

// render writes a full page with the shell for the request path.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page templates.Page) {
	page.Nav = h.shell.View(r.URL.Path)
	if err := h.pages.Write(w, status, name, page); err != nil {
		h.log.Error("unable to render page", "page", name, "path", r.URL.Path, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// LoadingHandler renders the placeholder shown while the stored session is
// still being read.
func LoadingHandler(logger *slog.Logger, pages *templates.Templates) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := pages.Write(w, http.StatusOK, templates.Loading, templates.Page{Title: "Loading"}); err != nil {
			logger.Error("unable to render loading page", "err", err)
			http.Error(w, "Loading...", http.StatusOK)
		}
	})
}

// statusFor maps backend errors to the HTTP status and the message safe to
// show to the user.
func statusFor(err error) (int, string) {
	var vErr *models.ValidationError
	var cErr *models.ConflictError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()
	case errors.As(err, &cErr):
		return http.StatusConflict, cErr.Error()
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

// sessionFrom returns the session the enforcer attached to the request.
func sessionFrom(r *http.Request) (*models.Session, bool) {
	return enforcer.SessionFromContext(r.Context())
}
