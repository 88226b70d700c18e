package httputil

import (
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
)

// RequestIDHeader is set by the API middleware before handlers run.
const RequestIDHeader = "X-Request-ID"

type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteErrorResponse echoes the request id already present on w, so a client
// report can be matched with the server log.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, details error) {
	resp := ErrorResponse{
		Code:      statusCode,
		Message:   message,
		RequestID: w.Header().Get(RequestIDHeader),
	}
	if details != nil {
		resp.Details = details.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := sonic.ConfigFastest.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("writing error response failed", slog.String("error", err.Error()))
	}
}

func WriteJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body == nil {
		return
	}
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil {
		slog.Error("writing response failed", slog.String("error", err.Error()))
	}
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
