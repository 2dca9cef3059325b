package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgch "TradeGuard/pkg/clickhouse"
	"TradeGuard/pkg/config"
	xhttp "TradeGuard/pkg/http"
	pkgkafka "TradeGuard/pkg/kafka"
	applogger "TradeGuard/pkg/logger"
	"TradeGuard/pkg/queue"
)

// Collector consumes the live market stream.
type Collector interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// WarmupRunner primes guard sessions before the live stream starts.
type WarmupRunner interface {
	Run(ctx context.Context, symbols []string) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   Collector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	replayQueue *queue.RedisQueue
	warmup      WarmupRunner
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies. Optional components
// (consumer, clickhouse, replay queue, warmup) may be nil.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector Collector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	replayQueue *queue.RedisQueue,
	warmup WarmupRunner,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		logger:      lgr,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		chClient:    chClient,
		replayQueue: replayQueue,
		warmup:      warmup,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	// Prime sessions from historical bars before live ticks arrive, so the
	// guards carry a meaningful peak from the first tick.
	if a.warmup != nil {
		if err := a.warmup.Run(ctx, a.cfg.Feed.Symbols); err != nil {
			l.Warn("warmup incomplete", applogger.Error(err))
		} else {
			l.Info("warmup complete", applogger.Strings("symbols", a.cfg.Feed.Symbols))
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.replayQueue != nil {
		if err := a.replayQueue.Start(); err != nil {
			l.Warn("replay queue start error", applogger.Error(err))
			a.replayQueue = nil
		} else {
			l.Info("replay queue started", applogger.String("prefix", a.cfg.Redis.ReplayQueue))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.replayQueue != nil {
		if err := a.replayQueue.Stop(shutdownCtx); err != nil {
			l.Warn("replay queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
