// Package gateway composes credential resolution, fallback-chain execution
// and response normalization into one HTTP handler per capability.
package gateway

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/sbagenius/gateway/pkg/gateway/chain"
	"github.com/sbagenius/gateway/pkg/gateway/config"
	"github.com/sbagenius/gateway/pkg/gateway/creds"
	"github.com/sbagenius/gateway/pkg/gateway/metrics"
	"github.com/sbagenius/gateway/pkg/gateway/streaming"
	"github.com/sbagenius/gateway/pkg/ledger"
)

// Gateway holds the shared pieces every capability handler composes.
// Handlers are stateless with respect to each other; only the ledger is
// mutable shared state and it serializes itself.
type Gateway struct {
	cfg       *config.Config
	creds     *creds.Resolver
	exec      *chain.Executor
	ledger    *ledger.Ledger
	metrics   *metrics.GatewayMetrics
	hub       *streaming.Hub
	upstreams Upstreams

	// proxyClient serves the generic proxy capability, which bypasses
	// the chain executor entirely.
	proxyClient *http.Client
}

// Option configures the gateway.
type Option func(*Gateway)

// WithExecutor replaces the chain executor.
func WithExecutor(exec *chain.Executor) Option {
	return func(g *Gateway) { g.exec = exec }
}

// WithUpstreams overrides the provider base URLs.
func WithUpstreams(u Upstreams) Option {
	return func(g *Gateway) { g.upstreams = u }
}

// WithLedger supplies an existing prediction ledger.
func WithLedger(l *ledger.Ledger) Option {
	return func(g *Gateway) { g.ledger = l }
}

// New creates a gateway from startup configuration.
func New(cfg *config.Config, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:       cfg,
		creds:     creds.NewResolver(cfg.Keys, config.ProviderGrok),
		exec:      chain.NewExecutor(chain.WithTimeout(cfg.UpstreamTimeout)),
		ledger:    ledger.New(),
		metrics:   metrics.New(),
		hub:       streaming.NewHub(),
		upstreams: DefaultUpstreams(),
		proxyClient: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Hub returns the streaming hub; the caller must run its event loop.
func (g *Gateway) Hub() *streaming.Hub {
	return g.hub
}

// Metrics returns the gateway metrics collector.
func (g *Gateway) Metrics() *metrics.GatewayMetrics {
	return g.metrics
}

// Ledger returns the prediction ledger.
func (g *Gateway) Ledger() *ledger.Ledger {
	return g.ledger
}

// Register installs all capability routes on the mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", g.capability("health", g.handleHealth))

	mux.HandleFunc("POST /youcom", g.capability("search", g.handleSearch))
	mux.HandleFunc("POST /odds-api", g.capability("odds", g.handleOdds))
	mux.HandleFunc("POST /betburger", g.capability("value-bets", g.handleValueBets))
	mux.HandleFunc("POST /balldontlie", g.capability("player-lookup", g.handlePlayerLookup))
	mux.HandleFunc("POST /balldontlie/game-log", g.capability("game-log", g.handleGameLog))
	mux.HandleFunc("POST /balldontlie/injuries", g.capability("injury-status", g.handleInjuryStatus))

	for provider := range chatProviders {
		mux.HandleFunc("POST /"+provider, g.capability("chat-"+provider, g.handleChat(provider)))
	}

	mux.HandleFunc("POST /proxy", g.capability("proxy", g.handleProxy))

	mux.HandleFunc("POST /rlm", g.capability("rlm-classify", g.handleRLM))
	mux.HandleFunc("POST /predictions", g.capability("prediction-append", g.handlePredictionAppend))
	mux.HandleFunc("POST /predictions/settle", g.capability("prediction-settle", g.handlePredictionSettle))
	mux.HandleFunc("GET /predictions/stats", g.capability("prediction-stats", g.handlePredictionStats))

	mux.HandleFunc("GET /ws", g.hub.ServeWS)
}

// handlerFunc is a capability handler that reports failures as errors so the
// wrapper can classify and record them uniformly.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (g *Gateway) capability(name string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		err := fn(w, r)
		outcome := "ok"
		if err != nil {
			ge, ok := err.(*Error)
			if !ok {
				ge = &Error{Kind: KindInternal, Message: err.Error()}
			}
			outcome = string(ge.Kind)
			log.Printf("[%s] %s", name, ge.Message)
			writeError(w, ge)
		}
		g.metrics.ObserveRequest(name, outcome, time.Since(start))
	}
}

// resolveKey resolves a provider credential, mapping a miss to the
// capability error taxonomy.
func (g *Gateway) resolveKey(provider, bodyOverride, authHeader string) (string, error) {
	key, err := g.creds.Resolve(provider, bodyOverride, authHeader)
	if err != nil {
		var missing *creds.MissingError
		if errors.As(err, &missing) {
			return "", missingCredential(missing.Provider)
		}
		return "", err
	}
	return key, nil
}

// runChain executes a fallback chain and translates exhaustion into an
// upstream failure, recording the winning variant otherwise.
func (g *Gateway) runChain(ctx context.Context, capability string, attempts []chain.Attempt) (*chain.Result, error) {
	res, err := g.exec.Execute(ctx, attempts)
	if err != nil {
		var exhausted *chain.ExhaustedError
		if errors.As(err, &exhausted) {
			g.metrics.ObserveChainExhausted(capability)
			return nil, upstreamFailure(exhausted.LastStatus, exhausted.Diag)
		}
		return nil, err
	}
	g.metrics.ObserveChainWin(capability, res.AttemptName)
	return res, nil
}
