package builtins

import (
	"encoding/json"
	"net/http"

	"github.com/Haymar136/faceflow-student-hub/api"
	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/attendance"
	"github.com/Haymar136/faceflow-student-hub/pkg/enforcer"
)

// maxJSONBytes bounds API request bodies; recognize carries an image.
const maxJSONBytes = 8 << 20

func (h *Handler) handleAPILoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		var req api.LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
			api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
			return
		}
		if req.Email == "" || req.Password == "" {
			api.RespondJSONAndLog(w, h.log, http.StatusBadRequest, errorBody(api.BadRequestValidation("email and password are required")))
			return
		}

		ok, err := h.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			h.log.Error("api login failed", "err", err)
			api.ReturnError(w, h.log, api.InternalServerError)
			return
		}
		if !ok {
			api.ReturnError(w, h.log, api.UnauthorizedInvalidCredentials)
			return
		}

		session := h.auth.CurrentSession()
		if session == nil {
			// logged out again before the token could be issued
			api.ReturnError(w, h.log, api.UnauthorizedAuthRequired)
			return
		}

		token, _, err := h.token.IssueToken(*session)
		if err != nil {
			h.log.Error("failed to generate token", "err", err)
			api.ReturnError(w, h.log, api.InternalServerError)
			return
		}

		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.LoginResponse{
			ExpiresIn: int(h.token.Duration().Seconds()),
			Token:     token,
			Session:   *session,
		})
	}
}

func (h *Handler) handleAPILogoutPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		h.shell.Logout(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleAPISessionGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		// middleware will have already denied the request without a session
		session, ok := sessionFrom(r)
		if !ok {
			api.ReturnError(w, h.log, api.UnauthorizedAuthRequired)
			return
		}

		resp := api.SessionResponse{Session: *session}
		if tokenStr, ok := enforcer.TokenFromContext(r.Context()); ok {
			if payload, err := h.token.ParseAccessToken(tokenStr); err == nil && payload.ExpiresAt != nil {
				exp := payload.ExpiresAt.Time
				resp.ExpiresAt = &exp
			}
		}
		api.RespondJSONAndLog(w, h.log, http.StatusOK, resp)
	}
}

func (h *Handler) handleAPIAttendanceGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		q := r.URL.Query()
		date, records, err := h.attendance.Records(r.Context(), q.Get("date"))
		if err != nil {
			h.respondBackendError(w, err)
			return
		}

		page, meta := attendance.FilterRecords(records, filterFromQuery(q))
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.AttendanceResponse{
			Date:    date,
			Records: page,
			Meta:    meta,
		})
	}
}

func (h *Handler) handleAPIRecognizePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		var req api.RecognizeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
			api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
			return
		}

		result, err := h.attendance.Recognize(r.Context(), req.Image)
		if err != nil {
			h.respondBackendError(w, err)
			return
		}
		api.RespondJSONAndLog(w, h.log, http.StatusOK, result)
	}
}

func (h *Handler) handleAPIStudentsPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		var req api.RegisterStudentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
			api.ReturnError(w, h.log, api.BadRequestInvalidJSON)
			return
		}

		student, err := h.attendance.RegisterStudent(r.Context(), req.Params())
		if err != nil {
			h.respondBackendError(w, err)
			return
		}
		api.RespondJSONAndLog(w, h.log, http.StatusCreated, api.StudentResponse{Student: student})
	}
}

func (h *Handler) handleAPIStudentsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		students, meta := h.attendance.ListStudents(filterFromQuery(r.URL.Query()))
		api.RespondJSONAndLog(w, h.log, http.StatusOK, api.GetStudentsResponse{
			Students: students,
			Meta:     meta,
		})
	}
}

// respondBackendError writes the API error for an attendance backend failure.
func (h *Handler) respondBackendError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		api.RespondJSONAndLog(w, h.log, status, errorBody(api.BadRequestValidation(msg)))
	case http.StatusConflict:
		api.RespondJSONAndLog(w, h.log, status, errorBody(api.ResourceConflict(msg)))
	default:
		h.log.Error("attendance backend failed", "err", err)
		api.ReturnError(w, h.log, api.InternalServerError)
	}
}

func errorBody(_ int, resp api.ErrorResponse) api.ErrorResponse {
	return resp
}
