// Package main provides the long-running backtest service: scheduled runs
// over a configured set of tickers, a JSON API over the stored results, a
// WebSocket stream of per-day run progress, and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"equity-pattern-lab/internal/backtest"
	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/ingest"
	"equity-pattern-lab/internal/observability"
	"equity-pattern-lab/internal/regime"
	"equity-pattern-lab/internal/reporting"
	"equity-pattern-lab/internal/scorer"
	"equity-pattern-lab/internal/storage"
	chstore "equity-pattern-lab/internal/storage/clickhouse"
	"equity-pattern-lab/internal/storage/memory"
	"equity-pattern-lab/internal/storage/migrations"
	pgstore "equity-pattern-lab/internal/storage/postgres"
)

// Server holds all components of the backtest service.
type Server struct {
	// Configuration
	tickers     []string
	dataDir     string
	indexCSV    string
	regimeSMA   int
	runInterval time.Duration
	cfg         domain.BacktestConfig

	// Components
	tradeStore    storage.TradeRecordStore
	dailyLogStore storage.DailyLogStore
	metrics       *observability.Metrics
	hub           *Hub
	logger        *log.Logger

	// State
	mu          sync.Mutex
	lastRun     time.Time
	runRunning  bool
	runsStarted int
	started     time.Time
}

func main() {
	// Parse flags (env vars as defaults)
	tickers := flag.String("tickers", "", "Comma-separated ticker symbols (required)")
	dataDir := flag.String("data-dir", "data", "Directory holding <ticker>.csv input files")
	indexCSV := flag.String("index-csv", "", "Optional market index CSV for the regime filter")
	regimeSMA := flag.Int("regime-sma", 200, "Long SMA period for the regime filter")
	runInterval := flag.Duration("run-interval", 24*time.Hour, "Backtest run interval")
	threshold := flag.Float64("threshold", 7.0, "Score threshold that triggers a trade")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *tickers == "" {
		logger.Fatal("--tickers is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	tickerList := splitTickers(*tickers)
	if len(tickerList) == 0 {
		logger.Fatal("No tickers specified")
	}
	logger.Printf("Scheduling backtests for: %v", tickerList)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	tradeStore, dailyLogStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	cfg := domain.DefaultBacktestConfig()
	cfg.ScoreThreshold = *threshold

	server := &Server{
		tickers:       tickerList,
		dataDir:       *dataDir,
		indexCSV:      *indexCSV,
		regimeSMA:     *regimeSMA,
		runInterval:   *runInterval,
		cfg:           cfg,
		tradeStore:    tradeStore,
		dailyLogStore: dailyLogStore,
		metrics:       observability.New(),
		hub:           NewHub(logger),
		logger:        logger,
		started:       time.Now(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Start HTTP server
	go server.startHTTPServer(*addr)

	// Run the scheduler until cancelled
	if err := server.runScheduler(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// splitTickers parses the comma-separated ticker flag.
func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// createStores creates the persistence backends.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.TradeRecordStore, storage.DailyLogStore, func(), error) {
	if useMemory {
		return memory.NewTradeRecordStore(), memory.NewDailyLogStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return pgstore.NewTradeRecordStore(pool), chstore.NewDailyLogStore(conn), cleanup, nil
}

// runScheduler runs all tickers immediately and then on the interval.
func (s *Server) runScheduler(ctx context.Context) error {
	s.logger.Printf("Starting run scheduler (interval: %v)...", s.runInterval)

	s.runAll(ctx)

	ticker := time.NewTicker(s.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll executes one backtest per configured ticker.
func (s *Server) runAll(ctx context.Context) {
	s.mu.Lock()
	if s.runRunning {
		s.mu.Unlock()
		s.logger.Println("Run already in progress, skipping...")
		return
	}
	s.runRunning = true
	s.runsStarted++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.runRunning = false
		s.lastRun = time.Now()
		s.mu.Unlock()
	}()

	filter := s.loadFilter()

	for _, ticker := range s.tickers {
		if ctx.Err() != nil {
			return
		}
		if err := s.runOne(ctx, ticker, filter); err != nil {
			s.logger.Printf("Backtest for %s failed: %v", ticker, err)
		}
	}
}

// loadFilter builds the regime filter, fail-open when the index file is
// missing or unreadable.
func (s *Server) loadFilter() *regime.Filter {
	if s.indexCSV == "" {
		return nil
	}
	indexBars, err := ingest.ReadBarsFile(s.indexCSV)
	if err != nil {
		s.logger.Printf("regime index unavailable (%v), running unfiltered", err)
		return nil
	}

	// The filter needs the union calendar of all tickers; the index series
	// itself serves as the calendar here since lookups fail open per day.
	series := ingest.BuildRegimeSeries(indexBars, s.regimeSMA, indexBars)
	return regime.NewFilter(series)
}

// runOne executes a single ticker backtest and persists the outputs.
func (s *Server) runOne(ctx context.Context, ticker string, filter *regime.Filter) error {
	path := filepath.Join(s.dataDir, strings.ToLower(ticker)+".csv")
	bars, err := ingest.ReadBarsFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	det, err := scorer.FromConfig(s.cfg.Scorer)
	if err != nil {
		return fmt.Errorf("build scorer: %w", err)
	}

	runner := backtest.NewRunner(backtest.RunnerOptions{
		Config:           s.cfg,
		Scorer:           det,
		Filter:           filter,
		TradeRecordStore: s.tradeStore,
		DailyLogStore:    s.dailyLogStore,
		Metrics:          s.metrics,
		Progress:         s.hub.Progress(),
		Logger:           s.logger,
	})

	start := time.Now()
	results, err := runner.Run(ctx, ticker, bars)
	if err != nil {
		return err
	}

	s.logger.Printf("Backtest %s completed in %v: %d days evaluated, %d trades",
		ticker, time.Since(start), results.DaysEvaluated, len(results.Trades))
	return nil
}

// startHTTPServer starts the HTTP server for health/metrics/API/WS.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", s.metrics.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Results API
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/report", s.handleReport)

	// Progress stream
	mux.HandleFunc("/ws", s.hub.ServeWS)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Tickers     []string  `json:"tickers"`
	LastRun     time.Time `json:"last_run,omitempty"`
	RunsStarted int       `json:"runs_started"`
	RunRunning  bool      `json:"run_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		Tickers:     s.tickers,
		LastRun:     s.lastRun,
		RunsStarted: s.runsStarted,
		RunRunning:  s.runRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleTrades returns the stored trade records for one ticker.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))
	if ticker == "" {
		http.Error(w, "ticker query parameter is required", http.StatusBadRequest)
		return
	}

	trades, err := s.tradeStore.GetByTicker(r.Context(), ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// handleReport returns the full run summary for one ticker.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))
	if ticker == "" {
		http.Error(w, "ticker query parameter is required", http.StatusBadRequest)
		return
	}

	gen := reporting.NewGenerator(s.tradeStore, s.dailyLogStore)
	report, err := gen.Generate(r.Context(), ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
