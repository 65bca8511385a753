package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SwingScan/internal/domain/repository"
	"SwingScan/internal/service/binance"
	"SwingScan/internal/usecase"
	pkgch "SwingScan/pkg/clickhouse"
	"SwingScan/pkg/config"
	xhttp "SwingScan/pkg/http"
	applogger "SwingScan/pkg/logger"
)

// App encapsulates the entire application lifecycle: the scan loop, the
// optional kline stream, the status HTTP server, and infrastructure
// clients that need orderly shutdown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scanner    *usecase.Scanner
	stream     *binance.Stream
	publisher  repository.SignalPublisher
	archive    repository.SignalArchive
	chClient   *pkgch.Client
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. Stream,
// publisher, archive, and chClient may be nil when the corresponding
// subsystem is disabled in config.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scanner *usecase.Scanner,
	stream *binance.Stream,
	publisher repository.SignalPublisher,
	archive repository.SignalArchive,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		scanner:   scanner,
		stream:    stream,
		publisher: publisher,
		archive:   archive,
		chClient:  chClient,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if a.stream != nil {
		go a.stream.Run(ctx)
		a.log.Info("kline stream started")
	}

	go func() {
		if err := a.scanner.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("scanner stopped", applogger.Error(err))
		}
	}()
	a.log.Info("scanner started",
		applogger.Duration("tick_interval", a.cfg.Scanner.TickInterval),
		applogger.Strings("timeframes", a.cfg.Aggregator.Timeframes))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
