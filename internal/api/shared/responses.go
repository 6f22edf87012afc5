package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/redact"
)

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"-"` // Not serialized to JSON, used for logging
	TraceID string `json:"trace_id,omitempty"`
}

// MutationResponse wraps the result of a write. Warning is set when the
// change was applied but could not be saved to durable storage.
type MutationResponse struct {
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// RespondWithMutation writes the result of a write. A non-nil warn is
// logged at WARN and reported to the client as a warning, not a failure.
func RespondWithMutation(w http.ResponseWriter, r *http.Request, status int, data any, warn error) {
	resp := MutationResponse{Data: data}
	if warn != nil {
		resp.Warning = "Change applied but could not be saved; it will be lost on restart"
		resp.TraceID = GetTraceID(r.Context())
		logger.FromContextOrDefault(r.Context(), slog.Default()).LogAttrs(r.Context(), slog.LevelWarn,
			"mutation not persisted",
			slog.String("trace_id", resp.TraceID),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
			slog.String("error", redact.Error(warn)),
		)
	}
	RespondWithJSON(w, r, status, resp)
}

// RespondWithError writes a JSON error response with the given status code and message.
// It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorAndLog(w, r, status, message, nil)
}

// RespondWithErrorAndLog writes a JSON error response and logs the detailed
// error. Only userMessage reaches the client; the error itself is redacted
// and kept in the logs.
//
// Server errors (5xx) are logged at ERROR, everything else at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)),
		)
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	logger.FromContextOrDefault(r.Context(), slog.Default()).
		LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   userMessage,
		Code:    status,
		TraceID: traceID,
	})
}
