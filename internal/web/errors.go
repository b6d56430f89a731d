package web

// errors.go renders failures as JSON. Every error goes through
// validation.MapError, so an API client sees the same message and code the
// CLI prints, and the HTTP status is derived from that code.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ginjaninja78/sales-rollup/internal/logging"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps a user message code to an HTTP status.
func statusFor(code string) int {
	switch {
	case strings.HasPrefix(code, "COL"):
		return http.StatusUnprocessableEntity
	case code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case strings.HasPrefix(code, "FILE"):
		return http.StatusBadRequest
	case code == "RUN001":
		return http.StatusTooManyRequests
	case code == "RUN002":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with request context and writes the mapped message.
// A non-zero status overrides the one derived from the message code.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := validation.MapError(err)
	if status == 0 {
		status = statusFor(msg.Code)
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
