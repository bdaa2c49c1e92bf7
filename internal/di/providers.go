package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	domrepo "FlowICT/internal/domain/repository"
	domsvc "FlowICT/internal/domain/service"
	"FlowICT/internal/handler/api"
	"FlowICT/internal/notify"
	internalrepo "FlowICT/internal/repository"
	"FlowICT/internal/risk"
	"FlowICT/internal/scheduler"
	"FlowICT/internal/service/marketdata"
	"FlowICT/internal/service/ratelimit"
	"FlowICT/internal/services/confirm"
	"FlowICT/internal/usecase"
	pkgcache "FlowICT/pkg/cache"
	pkgch "FlowICT/pkg/clickhouse"
	"FlowICT/pkg/config"
	xhttp "FlowICT/pkg/http"
	pkgkafka "FlowICT/pkg/kafka"
	applogger "FlowICT/pkg/logger"
	"FlowICT/pkg/metrics"
	pkgqueue "FlowICT/pkg/queue"
	"FlowICT/pkg/server"

	"github.com/redis/go-redis/v9"
)

// candleDDL creates the per-timeframe candle tables. Table names must
// match what the store resolves per timeframe.
var candleDDL = []string{
	"CREATE DATABASE IF NOT EXISTS flowict",
	candleTableDDL("flowict.candles_1m"),
	candleTableDDL("flowict.candles_5m"),
	candleTableDDL("flowict.candles_15m"),
	candleTableDDL("flowict.candles_1h"),
	candleTableDDL("flowict.candles_4h"),
	candleTableDDL("flowict.candles_1d"),
}

func candleTableDDL(table string) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=MergeTree ORDER BY (symbol, ts)",
		table,
	)
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// candle schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.Username, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, 30*time.Second, 30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, candleDDL); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the shared Redis client for the queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCache builds the layered cache, falling back to memory-only
// when Redis is unreachable.
func ProvideCache(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Cache.Prefix),
	)
	if err != nil {
		l.Warn("redis cache unavailable, using in-memory cache", applogger.Error(err))
		return pkgcache.NewMemoryCache()
	}
	return pkgcache.NewLayeredCache(rc)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideMarketData creates the REST candle provider; nil when disabled.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) domrepo.MarketDataProvider {
	if !cfg.MarketData.Enabled {
		return nil
	}
	c := marketdata.New(
		cfg.MarketData.BaseURL,
		cfg.MarketData.APIKey,
		cfg.MarketData.Timeout,
		ratelimit.New(),
		cfg.MarketData.Burst,
		cfg.MarketData.RatePerSec,
	)
	c.SetLogger(l)
	return c
}

// ProvideCandleStore layers the candle reads: cache over backfill over
// ClickHouse.
func ProvideCandleStore(
	cfg *config.Config,
	ch *pkgch.Client,
	provider domrepo.MarketDataProvider,
	cache pkgcache.Service,
	l *applogger.Logger,
) domrepo.CandleStore {
	base := internalrepo.NewCHCandleStore(ch)
	base.SetLogger(l)

	backfill := internalrepo.NewBackfillCandleStore(base, provider, internalrepo.NewCHCandleWriter(ch))
	backfill.SetLogger(l)

	cached := internalrepo.NewCachedCandleStore(backfill, cache, cfg.Cache.TTL)
	cached.SetLogger(l)
	return cached
}

// ProvideICTOptions maps the configuration onto the pattern engine knobs.
func ProvideICTOptions(cfg *config.Config) usecase.ICTOptions {
	htfs := make([]domrepo.Timeframe, 0, len(cfg.ICT.HTFTimeframes))
	for _, tf := range cfg.ICT.HTFTimeframes {
		htfs = append(htfs, domrepo.NormalizeTimeframe(tf))
	}
	lookbacks := make(map[domrepo.Timeframe]int, len(cfg.ICT.HTFLevelLookbacks))
	for tf, n := range cfg.ICT.HTFLevelLookbacks {
		lookbacks[domrepo.NormalizeTimeframe(tf)] = n
	}

	return usecase.ICTOptions{
		SwingLookback:       cfg.ICT.SwingLookbackPeriods,
		MSSLookback:         cfg.ICT.MSSSwingLookback,
		OBMinBodyRatio:      cfg.ICT.OBMinBodyRatio,
		OBDisplacementRatio: cfg.ICT.OBDisplacementBodyRatio,
		FVGThresholdPct:     cfg.ICT.FVGThresholdPct,
		PDLookback:          cfg.ICT.PDArrayLookbackPeriods,
		PDRetracementRatios: cfg.ICT.PDRetracementLevels,
		SweepMSSLookback:    cfg.ICT.SweepMSSLookbackCandles,

		HTFTimeframes:        htfs,
		HTFConsensusRequired: cfg.ICT.HTFBiasConsensusRequired,
		HTFLevelLookbacks:    lookbacks,
		HTFLevelLookbackDef:  cfg.ICT.HTFLevelLookbackDefault,
		KeyLevelProximityPct: cfg.ICT.KeyLevelProximityPct,

		RSIPeriod:                   cfg.ICT.RSIPeriod,
		RSIOverbought:               cfg.ICT.RSIOverbought,
		RSIOversold:                 cfg.ICT.RSIOversold,
		RSIGuardOffset:              cfg.ICT.RSIGuardOffset,
		ObstacleConfidenceThreshold: cfg.ICT.ObstacleConfidenceThreshold,

		CandleLimit: cfg.ICT.CandleLimit,
	}
}

// ProvideSynthesizer creates the signal synthesizer.
func ProvideSynthesizer(opts usecase.ICTOptions, l *applogger.Logger) *usecase.Synthesizer {
	return usecase.NewSynthesizer(opts, l)
}

// ProvideBiasAggregator creates the higher-timeframe bias reader.
func ProvideBiasAggregator(store domrepo.CandleStore, opts usecase.ICTOptions, l *applogger.Logger) *usecase.HTFBiasAggregator {
	return usecase.NewHTFBiasAggregator(store, opts, l)
}

// ProvideKeyLevelFilter creates the proximity filter over HTF levels.
func ProvideKeyLevelFilter(store domrepo.CandleStore, opts usecase.ICTOptions, l *applogger.Logger) *usecase.KeyLevelFilter {
	return usecase.NewKeyLevelFilter(store, opts, l)
}

// ProvideAnalysisUseCase creates the per-symbol analysis use case.
func ProvideAnalysisUseCase(
	store domrepo.CandleStore,
	bias *usecase.HTFBiasAggregator,
	levels *usecase.KeyLevelFilter,
	synth *usecase.Synthesizer,
	m domrepo.Metrics,
	opts usecase.ICTOptions,
	l *applogger.Logger,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(store, bias, levels, synth, m, opts, l)
}

// ProvideRiskManager creates the account-level risk gate.
func ProvideRiskManager(cfg *config.Config, l *applogger.Logger) *risk.Manager {
	return risk.NewManager(risk.Config{
		MinConfidence:   cfg.Risk.MinConfidence,
		AccountBalance:  cfg.Risk.AccountBalance,
		RiskPerTradePct: cfg.Risk.RiskPerTrade,
		MaxPositionPct:  cfg.Risk.MaxPositionSizePct,
		MaxDailyTrades:  cfg.Risk.MaxDailyTrades,
		MaxDailyLossPct: cfg.Risk.MaxDailyLossPct,
		ATRPeriod:       cfg.Risk.ATRPeriod,
		ATRStopMultiple: cfg.Risk.ATRStopMultiple,
		RewardRisk:      cfg.Risk.RewardRisk,
	}, l)
}

// ProvideConfirmer creates the external classifier gate; nil disables
// confirmation entirely.
func ProvideConfirmer(cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) domsvc.SignalConfirmer {
	if !cfg.Confirm.Enabled {
		return nil
	}
	c := confirm.NewHTTPClassifier(cfg.Confirm.BaseURL, cfg.Confirm.Timeout, m)
	c.SetLogger(l)
	return c
}

// ProvideThrottle creates the per-symbol emission throttle.
func ProvideThrottle(cfg *config.Config) *ratelimit.SignalThrottle {
	return ratelimit.NewSignalThrottle(cfg.Throttle.Cooldown, cfg.Throttle.MaxPerDay)
}

// ProvideHub creates the WebSocket broadcast hub.
func ProvideHub(l *applogger.Logger) *notify.Hub {
	hub := notify.NewHub()
	hub.SetLogger(l)
	return hub
}

// ProvideKafkaProducer creates the signal topic producer; nil when
// Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(-1),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideDispatcher fans emitted signals out to every enabled sink.
func ProvideDispatcher(
	cfg *config.Config,
	hub *notify.Hub,
	producer *pkgkafka.Producer,
	m domrepo.Metrics,
	l *applogger.Logger,
) *notify.Dispatcher {
	d := notify.NewDispatcher(m)
	d.SetLogger(l)

	d.Add("ws", notify.NewWSSink(hub))

	if cfg.Telegram.Enabled {
		tg := notify.NewTelegramSink(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 10*time.Second)
		tg.SetLogger(l)
		d.Add("telegram", tg)
	}
	if producer != nil {
		d.Add("kafka", notify.NewKafkaSink(producer, cfg.Kafka.SignalTopic))
	}
	if cfg.AMQP.Enabled {
		sink, err := notify.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Queue, l)
		if err != nil {
			l.Warn("amqp sink unavailable", applogger.Error(err))
		} else {
			d.Add("amqp", sink)
		}
	}
	return d
}

// ProvideSignalProcessor creates the delivery chain for emitted signals.
func ProvideSignalProcessor(
	cfg *config.Config,
	riskMgr *risk.Manager,
	confirmer domsvc.SignalConfirmer,
	throttle *ratelimit.SignalThrottle,
	dispatcher *notify.Dispatcher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(riskMgr, confirmer, throttle, dispatcher, m, cfg.Confirm.ConfidenceThreshold, l)
}

// ProvidePipeline creates the analyze-then-deliver pipeline.
func ProvidePipeline(analysis *usecase.AnalysisUseCase, processor *usecase.SignalProcessor, l *applogger.Logger) *usecase.Pipeline {
	return usecase.NewPipeline(analysis, processor, l)
}

// ProvideQueue creates the Redis-backed job queue with the analysis
// job registered.
func ProvideQueue(cfg *config.Config, l *applogger.Logger, rdb *redis.Client, pipeline *usecase.Pipeline) *pkgqueue.RedisQueue {
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, rdb, pkgqueue.ModeProducerConsumer)
	q.RegisterJob(scheduler.NewAnalysisJob(pipeline, l))
	return q
}

// ProvideScheduler creates the interval sweep over configured symbols.
// The cache doubles as the cross-replica sweep lock.
func ProvideScheduler(cfg *config.Config, q *pkgqueue.RedisQueue, cache pkgcache.Service, l *applogger.Logger) *scheduler.Runner {
	r := scheduler.NewRunner(cfg.Scheduler.Interval, cfg.Scheduler.Symbols, q)
	r.SetLogger(l)
	r.SetLockService(cache)
	return r
}

// ProvideHTTPHandler creates the Echo API surface.
func ProvideHTTPHandler(
	pipeline *usecase.Pipeline,
	bias *usecase.HTFBiasAggregator,
	levels *usecase.KeyLevelFilter,
	store domrepo.CandleStore,
	synth *usecase.Synthesizer,
	hub *notify.Hub,
	cache pkgcache.Service,
	l *applogger.Logger,
) xhttp.Handler {
	h := api.NewAnalysisHandler(pipeline, bias, levels, store, synth, hub, l)
	h.SetCache(cache)
	return h
}

// ProvideKafkaConsumer creates the request topic consumer; nil when
// Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, m domrepo.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(2),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.ObserverHook{Log: l, Observe: m.RecordLatency})
	return consumer, nil
}

// ProvideRequestHandler creates the on-demand analysis request handler.
func ProvideRequestHandler(cfg *config.Config, pipeline *usecase.Pipeline, m domrepo.Metrics) *usecase.AnalysisRequestHandler {
	return usecase.NewAnalysisRequestHandler(cfg.Kafka.RequestTopic, pipeline, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	hub *notify.Hub,
	sched *scheduler.Runner,
	q *pkgqueue.RedisQueue,
	processor *usecase.SignalProcessor,
	cache pkgcache.Service,
	chClient *pkgch.Client,
	rdb *redis.Client,
	consumer *pkgkafka.Consumer,
	kh *usecase.AnalysisRequestHandler,
) *server.App {
	app := server.New(cfg, l, handler, hub, sched, q, processor, cache, chClient, rdb)
	if consumer != nil {
		app.SetKafkaConsumer(consumer, kh)
	}
	return app
}
