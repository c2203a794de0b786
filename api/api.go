package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

// RespondJSONAndLog is a convenience wrapper around RespondJSON that also logs any encoding errors.
// It accepts a logger, writes a standardized JSON response, and logs at debug level if encoding fails.
//
// This function is useful when you want consistent response formatting and minimal inline error handling.
func RespondJSONAndLog(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if err := RespondJSON(w, status, payload); err != nil {
		logger.Debug("failed to respond with JSON", "err", err)
	}
}

// RespondJSON writes a standardized JSON response.
// It sets the appropriate HTTP status code and Content-Type header,
// and encodes the provided payload into the response body.
//
// Returns an error only if JSON encoding fails. In most cases, this happens
// if the response writer is closed or the payload is not serializable.
func RespondJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(payload)
}

// LoginRequest defines model for LoginRequest.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse defines model for LoginResponse.
type LoginResponse struct {
	ExpiresIn int            `json:"expiresIn"`
	Token     string         `json:"token"`
	Session   models.Session `json:"session"`
}

type SessionResponse struct {
	Session   models.Session `json:"session"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

type AttendanceResponse struct {
	Date    string                    `json:"date"`
	Records []models.AttendanceRecord `json:"records"`
	Meta    models.PaginationMeta     `json:"meta"`
}

// RecognizeRequest carries a captured frame, usually a data URL.
type RecognizeRequest struct {
	Image string `json:"image"`
}

type RegisterStudentRequest struct {
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Class     string `json:"class"`
	Photo     string `json:"photo"`
}

// Params converts the request to the attendance backend's input.
func (r RegisterStudentRequest) Params() models.RegisterStudentParams {
	return models.RegisterStudentParams{
		Name:      r.Name,
		StudentID: r.StudentID,
		Class:     r.Class,
		Photo:     r.Photo,
	}
}

type StudentResponse struct {
	Student models.Student `json:"student"`
}

type GetStudentsResponse struct {
	Students []models.Student      `json:"students"`
	Meta     models.PaginationMeta `json:"meta"`
}
