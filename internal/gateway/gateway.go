// Package gateway provides the HTTP boundary of the service: the chat
// endpoint, transcript and mode management, diagnostics, and metrics.
// Every route maps 1:1 onto a core store or engine call; the gateway
// itself holds no conversation state.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charank/mikasa/internal/chat"
	"github.com/charank/mikasa/internal/memory"
	"github.com/charank/mikasa/internal/memory/sqlite"
)

// Gateway is the HTTP server wiring the core into routes.
type Gateway struct {
	config     Config
	logger     *slog.Logger
	engine     *chat.Engine
	store      *sqlite.Store
	transcript memory.TranscriptStore
	modes      memory.ModeStore
	metrics    *Metrics
	modelName  string

	server    *http.Server
	startedAt time.Time

	// turnsServed counts chat turns handled since start, for /status.
	turnsServed atomic.Int64
}

// New wires a gateway. The store is used for the diagnostic status
// endpoint as well as direct transcript/mode routes.
func New(cfg Config, engine *chat.Engine, store *sqlite.Store, metrics *Metrics, modelName string, logger *slog.Logger) *Gateway {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:     cfg,
		logger:     logger,
		engine:     engine,
		store:      store,
		transcript: store.Transcript(),
		modes:      store.Modes(),
		metrics:    metrics,
		modelName:  modelName,
	}
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen on %s: %w", g.config.Bind, err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
