package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Kind is the machine-readable error classification returned to callers.
type Kind string

const (
	KindBadRequest        Kind = "bad_request"
	KindMissingCredential Kind = "missing_credential"
	KindNotFound          Kind = "not_found"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindInternal          Kind = "internal"
)

// Error is a capability-level failure carrying a kind and a human-readable
// message. Credentials never appear in the message.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) status() int {
	switch e.Kind {
	case KindBadRequest, KindMissingCredential:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func missingCredential(provider string) *Error {
	return &Error{Kind: KindMissingCredential, Message: fmt.Sprintf("no API key provided for %s", provider)}
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func upstreamFailure(lastStatus int, diag string) *Error {
	return &Error{
		Kind:    KindUpstreamFailure,
		Message: fmt.Sprintf("upstream failed with status %d: %s", lastStatus, diag),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

// writeRaw passes an upstream payload through untouched.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Printf("[HTTP] Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	ge, ok := err.(*Error)
	if !ok {
		ge = &Error{Kind: KindInternal, Message: err.Error()}
	}
	writeJSON(w, ge.status(), map[string]*Error{"error": ge})
}
