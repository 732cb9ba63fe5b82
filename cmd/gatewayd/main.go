// gatewayd is the SBA GENIUS gateway daemon. It sits between client apps and
// third-party odds, search, stats and chat-completion providers, translating
// stable internal request shapes into the right upstream calls.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sbagenius/gateway/pkg/gateway"
	"github.com/sbagenius/gateway/pkg/gateway/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpAddr = flag.String("http", "", "HTTP listen address (overrides SBA_LISTEN_ADDR)")
	cfgFile  = flag.String("config", "", "Optional config file (YAML)")
	timeout  = flag.Duration("upstream-timeout", 0, "Per-call upstream timeout (overrides SBA_UPSTREAM_TIMEOUT)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting SBA GENIUS gateway")

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *httpAddr != "" {
		cfg.ListenAddr = *httpAddr
	}
	if *timeout > 0 {
		cfg.UpstreamTimeout = *timeout
	}

	gw := gateway.New(cfg)
	go gw.Hub().Run()

	mux := http.NewServeMux()
	gw.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gw.Metrics().Registry(), promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Capability requests block on upstream chains, so the write
		// timeout must outlast the upstream timeout.
		WriteTimeout: cfg.UpstreamTimeout + 10*time.Second,
	}

	go func() {
		log.Printf("Gateway listening on %s (upstream timeout %s)", cfg.ListenAddr, cfg.UpstreamTimeout)
		log.Printf("WebSocket streaming available at ws://%s/ws", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	stats := gw.Ledger().Stats()
	log.Printf("Final ledger: total=%d settled=%d hitRate=%s", stats.Total, stats.Settled, stats.HitRate)
	log.Println("Goodbye!")
}
