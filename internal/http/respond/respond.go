// Package respond owns the wire envelopes and the single boundary
// translation from internal failures to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskpilot/taskpilot-be/internal/apperr"
)

// Envelope wraps successful task-endpoint responses.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorBody is the wire shape for every failure.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// JSON writes a bare payload without the envelope (auth and health endpoints).
func JSON(w http.ResponseWriter, status int, payload any) {
	write(w, status, payload)
}

// Error writes an explicit status and message.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, ErrorBody{StatusCode: status, Message: message})
}

// Failure translates err through the taxonomy and writes the error body.
// Tagged errors keep their client-safe message; anything untagged becomes a
// generic 500 and is logged with the request's method and path.
func Failure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	message := "internal server error"

	var e *apperr.Error
	if errors.As(err, &e) {
		message = e.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	} else {
		logger.Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"message", message,
		)
	}

	write(w, status, ErrorBody{StatusCode: status, Message: message})
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}
