package chain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestExecuteFirstAttemptWins(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	exec := NewExecutor()
	res, err := exec.Execute(context.Background(), []Attempt{
		{Name: "primary", Method: "GET", URL: server.URL + "/a"},
		{Name: "secondary", Method: "GET", URL: server.URL + "/b"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if res.AttemptIndex != 0 || res.AttemptName != "primary" {
		t.Errorf("Expected first attempt to win, got %d/%s", res.AttemptIndex, res.AttemptName)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Later attempts must never run after a success, got %d calls", calls)
	}
}

func TestExecuteAdvancesOnNon2xx(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/primary" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"source":"secondary"}`))
	}))
	defer server.Close()

	exec := NewExecutor()
	res, err := exec.Execute(context.Background(), []Attempt{
		{Name: "primary", Method: "GET", URL: server.URL + "/primary"},
		{Name: "secondary", Method: "GET", URL: server.URL + "/secondary"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if res.AttemptIndex != 1 {
		t.Errorf("Expected second attempt to win, got index %d", res.AttemptIndex)
	}
	if len(paths) != 2 {
		t.Errorf("Expected exactly one call per attempt, got %v", paths)
	}
}

func TestExecuteAdvancesOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	exec := NewExecutor()
	res, err := exec.Execute(context.Background(), []Attempt{
		{Name: "dead", Method: "GET", URL: "http://127.0.0.1:1/nothing"},
		{Name: "alive", Method: "GET", URL: server.URL},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.AttemptName != "alive" {
		t.Errorf("Expected fallback past the transport failure, got %s", res.AttemptName)
	}
}

func TestExecuteExhaustedCarriesLastFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/first" {
			http.Error(w, "first failure detail", http.StatusInternalServerError)
			return
		}
		http.Error(w, "last failure detail", http.StatusTeapot)
	}))
	defer server.Close()

	exec := NewExecutor()
	_, err := exec.Execute(context.Background(), []Attempt{
		{Name: "first", Method: "GET", URL: server.URL + "/first"},
		{Name: "last", Method: "GET", URL: server.URL + "/last"},
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if exhausted.LastStatus != http.StatusTeapot {
		t.Errorf("Expected last status 418, got %d", exhausted.LastStatus)
	}
	if !strings.Contains(exhausted.Diag, "last failure detail") {
		t.Errorf("Expected last attempt's body in diag, got %q", exhausted.Diag)
	}
	if strings.Contains(exhausted.Diag, "first failure") {
		t.Errorf("Earlier attempts' details must not be retained: %q", exhausted.Diag)
	}
	if exhausted.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", exhausted.Attempts)
	}
}

func TestExecuteRedactsSecretsFromDiag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream echoing the key back, as some do on auth failures.
		http.Error(w, "invalid key sk-very-secret-key", http.StatusUnauthorized)
	}))
	defer server.Close()

	exec := NewExecutor()
	_, err := exec.Execute(context.Background(), []Attempt{
		{Name: "keyed", Method: "GET", URL: server.URL, Secrets: []string{"sk-very-secret-key"}},
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if strings.Contains(exhausted.Diag, "sk-very-secret-key") {
		t.Errorf("Credential leaked into diagnostics: %q", exhausted.Diag)
	}
	if !strings.Contains(exhausted.Diag, "[redacted]") {
		t.Errorf("Expected redaction marker, got %q", exhausted.Diag)
	}
}

func TestExecuteTruncatesDiag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 2000), http.StatusBadGateway)
	}))
	defer server.Close()

	exec := NewExecutor()
	_, err := exec.Execute(context.Background(), []Attempt{
		{Name: "noisy", Method: "GET", URL: server.URL},
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if len(exhausted.Diag) > 200 {
		t.Errorf("Diag not truncated: %d chars", len(exhausted.Diag))
	}
}

func TestExecuteEmptyChain(t *testing.T) {
	exec := NewExecutor()
	if _, err := exec.Execute(context.Background(), nil); err == nil {
		t.Error("Empty chain should error")
	}
}

func TestExecuteSendsHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "abc" {
			t.Errorf("Missing X-API-Key header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("POST with body should default Content-Type to JSON")
		}
		if r.Method != "POST" {
			t.Errorf("Wrong method %s", r.Method)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	exec := NewExecutor()
	_, err := exec.Execute(context.Background(), []Attempt{{
		Name:    "post",
		Method:  "POST",
		URL:     server.URL,
		Headers: map[string]string{"X-API-Key": "abc"},
		Body:    []byte(`{"query":"q"}`),
	}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
}
