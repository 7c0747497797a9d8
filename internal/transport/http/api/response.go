// Package api shapes every HTTP response as one JSON envelope, so clients
// decode success and failure through a single path.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope struct {
	Success   bool      `json:"success"`
	RequestID string    `json:"requestId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Error     *errEntry `json:"error,omitempty"`
}

type errEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	write(w, http.StatusOK, envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	write(w, http.StatusCreated, envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	write(w, status, envelope{Success: false, Error: &errEntry{Code: code, Message: message}, RequestID: requestID})
}
