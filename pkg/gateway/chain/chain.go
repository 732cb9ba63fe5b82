// Package chain executes an ordered list of upstream attempt variants until
// one returns a 2xx. It is a synchronous best-effort probe, not a
// resilience-grade retry policy: attempts run strictly in sequence, no
// attempt is retried, and no delay is inserted between attempts.
package chain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// diagLimit bounds the diagnostic body carried by an ExhaustedError.
const diagLimit = 200

// Attempt is one fully resolved upstream call, immutable once built.
// Secrets lists credential material interpolated into the URL, headers or
// body; it is scrubbed from any diagnostic text the executor emits.
type Attempt struct {
	Name    string
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Secrets []string
}

// Result is the first successful response in a chain.
type Result struct {
	Status       int
	Header       http.Header
	Body         []byte
	AttemptIndex int
	AttemptName  string
}

// ExhaustedError reports that every attempt in the chain failed. Only the
// last attempt's status and a truncated, credential-redacted body fragment
// are retained.
type ExhaustedError struct {
	Attempts   int
	LastStatus int
	Diag       string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d upstream attempts failed, last status %d: %s", e.Attempts, e.LastStatus, e.Diag)
}

// Executor runs fallback chains over a shared rate-limited HTTP client.
type Executor struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the executor.
type Option func(*Executor)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		e.httpClient = client
	}
}

// WithTimeout sets the per-call upstream timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.httpClient.Timeout = d
	}
}

// WithLimiter sets a custom upstream rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Executor) {
		e.limiter = l
	}
}

// NewExecutor creates an executor. The default client allows 30s per
// upstream call; override with WithTimeout.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(20), 10),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the attempts in order and returns the first 2xx response.
// A non-2xx status or transport failure advances to the next attempt;
// success short-circuits so later attempts are never issued. When the final
// attempt also fails the chain is exhausted and an *ExhaustedError carrying
// the last attempt's failure is returned.
func (e *Executor) Execute(ctx context.Context, attempts []Attempt) (*Result, error) {
	if len(attempts) == 0 {
		return nil, fmt.Errorf("empty attempt chain")
	}

	var lastStatus int
	var lastDiag string
	var lastSecrets []string

	for i, attempt := range attempts {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		status, header, body, err := e.do(ctx, attempt)
		if err != nil {
			// Transport failure: treated like a non-2xx, advance.
			lastStatus = 0
			lastDiag = err.Error()
			lastSecrets = attempt.Secrets
			continue
		}

		if status >= 200 && status < 300 {
			return &Result{
				Status:       status,
				Header:       header,
				Body:         body,
				AttemptIndex: i,
				AttemptName:  attempt.Name,
			}, nil
		}

		lastStatus = status
		lastDiag = string(body)
		lastSecrets = attempt.Secrets
	}

	return nil, &ExhaustedError{
		Attempts:   len(attempts),
		LastStatus: lastStatus,
		Diag:       truncate(redact(lastDiag, lastSecrets), diagLimit),
	}
}

func (e *Executor) do(ctx context.Context, attempt Attempt) (int, http.Header, []byte, error) {
	var bodyReader io.Reader
	if attempt.Body != nil {
		bodyReader = bytes.NewReader(attempt.Body)
	}

	req, err := http.NewRequestWithContext(ctx, attempt.Method, attempt.URL, bodyReader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if attempt.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range attempt.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, resp.Header, body, nil
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, "[redacted]")
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
