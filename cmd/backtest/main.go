package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"equity-pattern-lab/internal/backtest"
	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/ingest"
	"equity-pattern-lab/internal/metrics"
	"equity-pattern-lab/internal/observability"
	"equity-pattern-lab/internal/regime"
	"equity-pattern-lab/internal/reporting"
	"equity-pattern-lab/internal/scorer"
	"equity-pattern-lab/internal/scorer/llm"
	"equity-pattern-lab/internal/storage"
	chstore "equity-pattern-lab/internal/storage/clickhouse"
	"equity-pattern-lab/internal/storage/memory"
	"equity-pattern-lab/internal/storage/migrations"
	pgstore "equity-pattern-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	input := flag.String("input", "", "OHLCV CSV file for the ticker (required)")
	ticker := flag.String("ticker", "", "Ticker symbol (required)")
	indexCSV := flag.String("index-csv", "", "Optional market index CSV for the regime filter")

	// Scorer selection
	scorerType := flag.String("scorer", "deterministic", "Scorer: deterministic or llm")
	momentumMode := flag.String("momentum-mode", domain.MomentumModeRelativeStrength,
		"Momentum variant: RELATIVE_STRENGTH or OWN_RETURN")

	// Walk-forward parameters
	lookback := flag.Int("lookback", 40, "Trailing window length (days)")
	horizon := flag.Int("horizon", 20, "Forward outcome window (days)")
	threshold := flag.Float64("threshold", 7.0, "Score threshold that triggers a trade")

	// Indicator parameters
	fastSMA := flag.Int("fast-sma", 50, "Fast SMA period")
	slowSMA := flag.Int("slow-sma", 200, "Slow SMA period (0 disables)")
	atrPeriod := flag.Int("atr-period", 14, "ATR period")
	regimeSMA := flag.Int("regime-sma", 200, "Long SMA period for the regime filter")

	// Risk parameters
	stopMult := flag.Float64("stop-mult", 2.0, "Stop-loss ATR multiple")
	targetMult := flag.Float64("target-mult", 4.0, "Take-profit ATR multiple")

	// LLM scorer
	llmModel := flag.String("llm-model", llm.DefaultModel, "Model identifier for the LLM scorer")
	llmEndpoint := flag.String("llm-endpoint", llm.DefaultEndpoint, "Chat completion endpoint")
	auditFile := flag.String("audit-file", "llm_audit.jsonl", "JSONL audit trail for LLM calls")

	// Output
	tradesOut := flag.String("trades-out", "trades.csv", "Trade records output CSV")
	dailyLogOut := flag.String("daily-log-out", "daily_log.csv", "Daily log output CSV")
	outputJSON := flag.Bool("json", false, "Print the run summary as JSON")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (trade records)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (daily logs)")
	useMemory := flag.Bool("use-memory", true, "Use in-memory storage")
	persist := flag.Bool("persist", false, "Persist both output streams to storage")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *input == "" {
		logger.Fatal("--input is required")
	}
	if *ticker == "" {
		logger.Fatal("--ticker is required")
	}

	*momentumMode = strings.ToUpper(*momentumMode)
	if *momentumMode != domain.MomentumModeRelativeStrength &&
		*momentumMode != domain.MomentumModeOwnReturn {
		logger.Fatalf("Invalid momentum mode: %s. Must be RELATIVE_STRENGTH or OWN_RETURN", *momentumMode)
	}

	*scorerType = strings.ToLower(*scorerType)
	if *scorerType != "deterministic" && *scorerType != "llm" {
		logger.Fatalf("Invalid scorer: %s. Must be deterministic or llm", *scorerType)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Build config
	cfg := domain.BacktestConfig{
		LookbackDays:   *lookback,
		ForwardHorizon: *horizon,
		ScoreThreshold: *threshold,
		Indicators: domain.IndicatorConfig{
			FastSMAPeriod: *fastSMA,
			SlowSMAPeriod: *slowSMA,
			ATRPeriod:     *atrPeriod,
		},
		Scorer: domain.DefaultScorerConfig(),
		Risk: domain.RiskConfig{
			StopATRMultiple:   *stopMult,
			TargetATRMultiple: *targetMult,
		},
	}
	cfg.Scorer.MomentumMode = *momentumMode

	// Load primary series
	bars, err := ingest.ReadBarsFile(*input)
	if err != nil {
		logger.Fatalf("load input: %v", err)
	}
	logger.Printf("Loaded %d bars for %s", len(bars), *ticker)

	// Optional regime filter: a missing index file is fatal only when asked
	// for; once loaded, gaps inside the series fail open per day.
	var filter *regime.Filter
	if *indexCSV != "" {
		indexBars, err := ingest.ReadBarsFile(*indexCSV)
		if err != nil {
			logger.Fatalf("load index: %v", err)
		}
		series := ingest.BuildRegimeSeries(indexBars, *regimeSMA, bars)
		filter = regime.NewFilter(series)
		logger.Printf("Regime filter enabled: %d index bars", len(indexBars))
	}

	// Build scorer
	sc, cleanup, err := buildScorer(cfg, *scorerType, *llmModel, *llmEndpoint, *auditFile)
	if err != nil {
		logger.Fatalf("build scorer: %v", err)
	}
	defer cleanup()

	// Optional persistence
	var tradeStore storage.TradeRecordStore
	var dailyLogStore storage.DailyLogStore
	if *persist {
		tradeStore, dailyLogStore, err = buildStores(ctx, logger, *useMemory, *postgresDSN, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
	}

	runner := backtest.NewRunner(backtest.RunnerOptions{
		Config:           cfg,
		Scorer:           sc,
		Filter:           filter,
		TradeRecordStore: tradeStore,
		DailyLogStore:    dailyLogStore,
		Metrics:          observability.New(),
		Logger:           logger,
	})

	logger.Printf("Running backtest: ticker=%s scorer=%s lookback=%d horizon=%d threshold=%.1f",
		*ticker, sc.ID(), *lookback, *horizon, *threshold)

	results, err := runner.Run(ctx, *ticker, bars)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	// Both output files are always written, header-only when empty.
	if err := writeCSVFile(*tradesOut, func(f *os.File) error {
		return reporting.WriteTradesCSV(f, results.Trades)
	}); err != nil {
		logger.Fatalf("write trades: %v", err)
	}
	if err := writeCSVFile(*dailyLogOut, func(f *os.File) error {
		return reporting.WriteDailyLogCSV(f, results.DailyLogs)
	}); err != nil {
		logger.Fatalf("write daily log: %v", err)
	}

	printSummary(results, *outputJSON)
}

// buildScorer constructs the configured scoring strategy. The returned
// cleanup is a no-op for the deterministic scorer.
func buildScorer(cfg domain.BacktestConfig, scorerType, model, endpoint, auditFile string) (scorer.Scorer, func(), error) {
	noop := func() {}

	if scorerType == "deterministic" {
		det, err := scorer.FromConfig(cfg.Scorer)
		if err != nil {
			return nil, noop, err
		}
		return det, noop, nil
	}

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	client := llm.NewHTTPClient(apiKey,
		llm.WithModel(model),
		llm.WithEndpoint(endpoint),
	)
	sink := llm.NewFileSink(auditFile)
	s, err := llm.New(client, sink)
	if err != nil {
		return nil, noop, err
	}
	return s, noop, nil
}

// buildStores wires the persistence backends. Memory is the default; DSNs
// select the durable backends and run their migrations.
func buildStores(ctx context.Context, logger *log.Logger, useMemory bool, postgresDSN, clickhouseDSN string) (storage.TradeRecordStore, storage.DailyLogStore, error) {
	if useMemory && postgresDSN == "" && clickhouseDSN == "" {
		logger.Printf("Persisting to in-memory stores (results discarded at exit)")
		return memory.NewTradeRecordStore(), memory.NewDailyLogStore(), nil
	}

	if postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required when not using --use-memory (trade records)")
	}
	if clickhouseDSN == "" {
		return nil, nil, fmt.Errorf("--clickhouse-dsn is required when not using --use-memory (daily logs)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	return pgstore.NewTradeRecordStore(pool), chstore.NewDailyLogStore(conn), nil
}

func writeCSVFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printSummary outputs the run summary.
func printSummary(results *backtest.Results, asJSON bool) {
	perf := metrics.ComputePerformance(results.Trades)

	if asJSON {
		output, _ := json.MarshalIndent(struct {
			*backtest.Results
			Performance metrics.Performance `json:"performance"`
		}{results, perf}, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Println()
	fmt.Println("=== Backtest Summary ===")
	fmt.Printf("Ticker:           %s\n", results.Ticker)
	fmt.Printf("Strategy:         %s\n", results.StrategyID)
	fmt.Printf("Days Evaluated:   %d\n", results.DaysEvaluated)
	fmt.Printf("Days Blocked:     %d\n", results.DaysBlocked)
	fmt.Printf("Days Degraded:    %d\n", results.DaysDegraded)
	fmt.Printf("Trades Triggered: %d\n", len(results.Trades))
	if perf.TotalTrades > 0 {
		fmt.Printf("Win Rate:         %.2f%%\n", perf.WinRate)
		fmt.Printf("Profit Factor:    %s\n", formatProfitFactor(perf.ProfitFactor))
	}
}

func formatProfitFactor(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
