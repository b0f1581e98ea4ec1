package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoPenny/internal/service/market"
	"CoPenny/pkg/config"
	xhttp "CoPenny/pkg/http"
	pkgkafka "CoPenny/pkg/kafka"
	applogger "CoPenny/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server, market
// stream, alert consumer and infrastructure teardown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	httpServer *xhttp.Server
	market     *market.Stream
	consumer   *pkgkafka.Consumer
	alertSink  pkgkafka.MessageHandler

	closers []func(context.Context) error
}

// New creates the application. market, consumer and alertSink may be
// nil when the corresponding infrastructure is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	marketStream *market.Stream,
	consumer *pkgkafka.Consumer,
	alertSink pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		market:    marketStream,
		consumer:  consumer,
		alertSink: alertSink,
	}
}

// OnShutdown registers a teardown callback, run in reverse order.
func (a *App) OnShutdown(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Run starts everything and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)

	if a.market != nil {
		go a.market.Run(ctx)
		a.log.Info("market stream started", applogger.Strings("symbols", a.cfg.Market.Symbols))
	}

	if a.consumer != nil && a.alertSink != nil {
		a.consumer.RegisterHandler(a.alertSink)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("alert consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("alert consumer started", applogger.String("topic", a.alertSink.Topic()))
	}

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

// shutdown stops all services gracefully.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("alert consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](shutdownCtx); err != nil {
			a.log.Warn("teardown error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
