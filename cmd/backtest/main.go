package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"FlowICT/internal/backtest"
	"FlowICT/internal/di"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/pkg/config"
	"FlowICT/pkg/util"
)

// Offline replay of the signal synthesizer over stored candles. Reads
// from ClickHouse (backfilling through the market-data provider when the
// store is cold) and prints the summary table.
func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "config file path")
		symbol     = flag.String("symbol", "", "symbol to replay (required)")
		tfRaw      = flag.String("tf", "1h", "timeframe (1m 5m 15m 1h 4h 1d)")
		fromRaw    = flag.String("from", "", "range start, RFC3339 or unix seconds (default: to - 90d)")
		toRaw      = flag.String("to", "", "range end, RFC3339 or unix seconds (default: now)")
		spread     = flag.Float64("spread", 0, "round-trip cost per unit")
		listTrades = flag.Bool("trades", false, "print the individual trade list")
	)
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}
	tf := domrepo.Timeframe(*tfRaw)
	if !domrepo.IsValidTimeframe(tf) {
		log.Fatalf("unsupported timeframe %q", *tfRaw)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse init failed: %v", err)
	}

	store := di.ProvideCandleStore(cfg, ch, di.ProvideMarketData(cfg, l), di.ProvideCache(cfg, l), l)
	defer store.Close()

	to := util.ParseTimeDefault(*toRaw, time.Now().UTC())
	from := util.ParseTimeDefault(*fromRaw, to.AddDate(0, 0, -90))
	if !to.After(from) {
		log.Fatalf("empty range: from %s is not before to %s", from, to)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	candles, err := store.GetCandles(ctx, *symbol, from, to, tf)
	if err != nil {
		log.Fatalf("candle load failed: %v", err)
	}
	if len(candles) == 0 {
		log.Fatalf("no candles for %s %s between %s and %s", *symbol, tf, from, to)
	}

	engine := backtest.NewEngine(di.ProvideSynthesizer(di.ProvideICTOptions(cfg), l), backtest.Config{Spread: *spread})
	engine.SetLogger(l)

	results := engine.Run(*symbol, tf, candles)
	results.Print()
	if *listTrades {
		results.PrintTrades()
	}
}
