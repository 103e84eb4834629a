package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/flowforge/netflow9collector/decoders/netflow9"
	"github.com/flowforge/netflow9collector/ingest"
	"github.com/flowforge/netflow9collector/internal/config"
	"github.com/flowforge/netflow9collector/internal/httpserver"
	"github.com/flowforge/netflow9collector/internal/logging"
	"github.com/flowforge/netflow9collector/transport"
)

// App owns the collector's whole lifecycle: logging, the template cache,
// ingestion, transport, and an optional HTTP server exposing metrics,
// health, and the templates endpoint.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	collector  *Collector
	transport  *transport.Transport
	server     *http.Server
	serverErr  chan error
	collecting atomic.Bool
}

// New wires an App from cfg. It does not start ingestion; call Run or
// Start for that.
func New(cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFmt, "netflow9collector")
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	tr, err := transport.Find(cfg.Transport)
	if err != nil {
		return nil, err
	}

	if cfg.MappingFile != "" {
		if err := applyFieldMapping(cfg.MappingFile); err != nil {
			return nil, err
		}
	}

	cache := newCache(cfg)

	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	coll := NewCollector(CollectorConfig{
		Source:    source,
		Transport: tr,
		Cache:     cache,
		ErrCnt:    cfg.ErrCnt,
		ErrInt:    cfg.ErrInt,
		Logger:    logger,
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		collector: coll,
		transport: tr,
		serverErr: make(chan error, 1),
	}

	if cfg.Addr != "" {
		mux := httpserver.New(httpserver.Config{
			Addr:         cfg.Addr,
			TemplatePath: cfg.TemplatePath,
		}, coll.Templates, a.collecting.Load)
		a.server = &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

func newCache(cfg *config.Config) netflow9.Cache {
	cache := netflow9.NewTemplateCache()
	if cfg.TemplatesTTL <= 0 {
		return cache
	}
	evicting := netflow9.NewEvictingCache(cache, cfg.TemplatesTTL)
	go sweepForever(evicting, cfg.TemplatesSweepInterval)
	return evicting
}

func sweepForever(evicting *netflow9.EvictingCache, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		evicting.Sweep()
	}
}

func newSource(cfg *config.Config) (ingest.Source, error) {
	if cfg.PCAPFile != "" {
		return ingest.NewPCAPSource(cfg.PCAPFile)
	}

	listeners, err := config.ParseListenAddresses(cfg.Listen)
	if err != nil {
		return nil, err
	}
	if len(listeners) == 0 {
		return nil, fmt.Errorf("app: no listen addresses configured")
	}
	// Multiple scheme://host:port entries let an operator carry over a
	// multi-protocol listen string from another collector; only the
	// first entry drives this collector's single UDP listener.
	l := listeners[0]

	return ingest.NewUDPSource(ingest.UDPSourceConfig{
		Address:   l.Hostname,
		Port:      l.Port,
		Sockets:   l.NumSockets,
		Workers:   l.NumWorkers,
		QueueSize: l.QueueSize,
		Blocking:  l.Blocking,
	}), nil
}

// applyFieldMapping loads a YAML field-name override file and installs it
// into the decoder's field catalog.
func applyFieldMapping(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("app: opening mapping file: %w", err)
	}
	defer f.Close()

	m, err := config.LoadFieldMapping(f)
	if err != nil {
		return err
	}
	netflow9.SetFieldNameOverrides(m.Fields)
	return nil
}

// Start starts the collector and, if configured, the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting netflow9 collector")

	if err := a.collector.Start(); err != nil {
		return err
	}
	a.collecting.Store(true)

	if a.server == nil {
		return nil
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serverErr <- err
			return
		}
		a.logger.Info("closed HTTP server", slog.String("addr", a.cfg.Addr))
	}()

	return nil
}

// Run starts the app and blocks until ctx is cancelled or the HTTP server
// fails, shutting down cleanly either way.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	if a.server == nil {
		<-ctx.Done()
		a.shutdownWithTimeout()
		return nil
	}

	select {
	case <-ctx.Done():
		a.shutdownWithTimeout()
		return nil
	case err := <-a.serverErr:
		a.shutdownWithTimeout()
		return err
	}
}

func (a *App) shutdownWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Shutdown(ctx)
}

// Shutdown stops ingestion, closes the transport, and shuts down the HTTP
// server if one is running.
func (a *App) Shutdown(ctx context.Context) {
	a.collecting.Store(false)

	a.collector.Stop()
	if err := a.transport.Close(); err != nil {
		a.logger.Error("closing transport", slog.String("error", err.Error()))
	}

	if a.server == nil {
		return
	}
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("shutting down HTTP server", slog.String("error", err.Error()))
	}
}
