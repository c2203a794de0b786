package enforcer

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Haymar136/faceflow-student-hub/api"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

type contextKey string

const (
	SessionContextKey contextKey = "session"
	JWTContextKey     contextKey = "jwt"
)

// SessionFromContext returns the session attached by the enforcer to an allowed request.
// Public routes may carry no session.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*models.Session)
	return s, ok && s != nil
}

// TokenFromContext returns the bearer token an API request was authorized with.
func TokenFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(JWTContextKey).(string)
	return s, ok && s != ""
}

// WrapHandler returns h guarded by the route policy table. Every request
// takes a fresh snapshot of the authentication state and acts on the
// Decision returned by Evaluate.
func (e *Enforcer) WrapHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		policy, _ := e.FindMatchingPolicy(r.URL.Path, r.Method)
		state := e.auth.State()

		var tokenString string
		if e.isAPIRequest(r) && !policy.Public {
			state, tokenString = e.authenticateBearer(r, state)
		}

		result := e.Evaluate(state, policy, r.URL.RequestURI())
		e.log.Debug("route evaluated", "path", r.URL.Path, "method", r.Method, "decision", result.Decision.String())

		switch result.Decision {
		case Checking:
			e.respondLoading(w, r)
		case Unauthenticated:
			e.respondUnauthenticated(w, r, result.Redirect)
		case Forbidden:
			e.respondForbidden(w, r, result.Redirect)
		case Allowed:
			ctx := context.WithValue(r.Context(), SessionContextKey, state.Session)
			if tokenString != "" {
				ctx = context.WithValue(ctx, JWTContextKey, tokenString)
			}
			h.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// authenticateBearer replaces the session in state with nil unless the
// request carries a valid token issued for the live session.
func (e *Enforcer) authenticateBearer(r *http.Request, state models.AuthState) (models.AuthState, string) {
	if state.Loading || state.Session == nil {
		return state, ""
	}

	tokenStr, err := extractBearerToken(r)
	if err != nil {
		e.log.Debug("api request without usable bearer token", "error", err.Error(), "url", r.URL.Path)
		state.Session = nil
		return state, ""
	}
	if e.token == nil {
		e.log.Error("api request received but no token parser is configured", "url", r.URL.Path)
		state.Session = nil
		return state, ""
	}

	payload, err := e.token.ParseAccessToken(tokenStr)
	if err != nil {
		e.log.Debug("JWT token invalid", "error", err.Error(), "url", r.URL.Path)
		state.Session = nil
		return state, ""
	}
	if payload.Session() != *state.Session {
		e.log.Debug("JWT token does not belong to the live session", "subject", payload.Subject, "url", r.URL.Path)
		state.Session = nil
		return state, ""
	}

	return state, tokenStr
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("no authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}

	return token, nil
}

// isAPIRequest checks if a request targets the JSON API.
func (e *Enforcer) isAPIRequest(r *http.Request) bool {
	return e.APIPrefix != "" && strings.HasPrefix(r.URL.Path, e.APIPrefix)
}

func (e *Enforcer) respondLoading(w http.ResponseWriter, r *http.Request) {
	retry := int(e.LoadingRetry.Seconds())
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Cache-Control", "no-store")

	if e.isAPIRequest(r) {
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		api.ReturnError(w, e.log, api.ServiceUnavailableLoading)
		return
	}

	w.Header().Set("Refresh", strconv.Itoa(retry))
	if e.LoadingHandler != nil {
		e.LoadingHandler.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Loading..."))
}

func (e *Enforcer) respondUnauthenticated(w http.ResponseWriter, r *http.Request, redirect string) {
	if e.isAPIRequest(r) {
		api.ReturnError(w, e.log, api.UnauthorizedAuthRequired)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (e *Enforcer) respondForbidden(w http.ResponseWriter, r *http.Request, redirect string) {
	if e.isAPIRequest(r) {
		api.ReturnError(w, e.log, api.ForbiddenAccessDenied)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (e *Enforcer) respondMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if e.isAPIRequest(r) {
		api.ReturnError(w, e.log, api.MethodNotAllowed)
	} else {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
