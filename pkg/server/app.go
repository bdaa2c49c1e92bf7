package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"FlowICT/internal/notify"
	"FlowICT/internal/scheduler"
	"FlowICT/internal/usecase"
	pkgcache "FlowICT/pkg/cache"
	pkgch "FlowICT/pkg/clickhouse"
	"FlowICT/pkg/config"
	xhttp "FlowICT/pkg/http"
	pkgkafka "FlowICT/pkg/kafka"
	applogger "FlowICT/pkg/logger"
	pkgqueue "FlowICT/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle: the HTTP surface,
// the signal hub, the scheduled analysis sweeps, the queue workers, and
// the optional Kafka request consumer.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	handler   xhttp.Handler
	hub       *notify.Hub
	sched     *scheduler.Runner
	queue     *pkgqueue.RedisQueue
	processor *usecase.SignalProcessor
	cache     pkgcache.Service
	chClient  *pkgch.Client
	rdb       *redis.Client

	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	hub *notify.Hub,
	sched *scheduler.Runner,
	queue *pkgqueue.RedisQueue,
	processor *usecase.SignalProcessor,
	cache pkgcache.Service,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		hub:       hub,
		sched:     sched,
		queue:     queue,
		processor: processor,
		cache:     cache,
		chClient:  chClient,
		rdb:       rdb,
	}
}

// SetKafkaConsumer attaches the on-demand analysis request consumer.
func (a *App) SetKafkaConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = h
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithHost(a.cfg.HTTP.Host),
		xhttp.WithPort(a.cfg.HTTP.Port),
		xhttp.WithTimeouts(a.cfg.HTTP.ReadTimeout, a.cfg.HTTP.WriteTimeout, a.cfg.HTTP.ShutdownTimeout),
		xhttp.WithCORS(!a.cfg.HTTP.DisableCORS),
		xhttp.WithLogger(a.l),
	}
	if a.cfg.HTTP.Auth.Enabled {
		opts = append(opts, xhttp.WithAuth(a.cfg.HTTP.Auth.Secret, "/healthz", "/metrics", "/ws"))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if a.hub != nil {
		go a.hub.Run(ctx)
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.l.Error("queue start error", applogger.Error(err))
			return err
		}
	}

	if a.sched != nil {
		go a.sched.Run(ctx)
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka request consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("flowict started",
		applogger.String("env", a.cfg.App.Env),
		applogger.Int("port", a.cfg.HTTP.Port),
		applogger.Strings("symbols", a.cfg.Scheduler.Symbols),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops intake first, drains the workers, then closes the
// delivery sinks and infrastructure clients.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.l.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.processor != nil {
		a.processor.Close()
	}

	if c, ok := a.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
