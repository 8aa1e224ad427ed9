package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "BarPull/internal/domain/repository"
	"BarPull/pkg/config"
	xhttp "BarPull/pkg/http"
	applogger "BarPull/pkg/logger"
)

// App encapsulates the API process lifecycle: HTTP server up, block on a
// signal, then tear everything down in dependency order.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	store      domrepo.MarketStore
	sink       domrepo.Sink
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates an App. sink may be nil when mirroring is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	store domrepo.MarketStore,
	sink domrepo.Sink,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		store:   store,
		sink:    sink,
		handler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	metricsPath := a.cfg.Metrics.Path
	if !a.cfg.Metrics.Enabled {
		metricsPath = ""
	}

	a.httpServer = xhttp.NewServer(a.handler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server and closes storage.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("sink close error", applogger.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
