package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/metrics"
	"equity-pattern-lab/internal/reporting"
	"equity-pattern-lab/internal/storage"
	chstore "equity-pattern-lab/internal/storage/clickhouse"
	"equity-pattern-lab/internal/storage/memory"
	pgstore "equity-pattern-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	ticker := flag.String("ticker", "", "Ticker symbol (required)")
	tradesCSV := flag.String("trades-csv", "", "Trades CSV produced by the backtest")
	dailyLogCSV := flag.String("daily-log-csv", "", "Daily log CSV produced by the backtest")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (read trades from storage)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (read daily logs from storage)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	flag.Parse()

	ctx := context.Background()

	if *ticker == "" {
		fmt.Fprintln(os.Stderr, "Error: --ticker is required")
		os.Exit(1)
	}

	fromFiles := *tradesCSV != "" || *dailyLogCSV != ""
	fromDB := *postgresDSN != "" || *clickhouseDSN != ""
	if fromFiles == fromDB {
		fmt.Fprintln(os.Stderr, "Error: provide either --trades-csv/--daily-log-csv or --postgres-dsn/--clickhouse-dsn")
		os.Exit(1)
	}

	var report *reporting.Report
	var err error
	if fromFiles {
		report, err = reportFromFiles(*ticker, *tradesCSV, *dailyLogCSV)
	} else {
		report, err = reportFromStores(ctx, *ticker, *postgresDSN, *clickhouseDSN)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing markdown: %v\n", err)
		os.Exit(1)
	}

	sqPath := filepath.Join(*outputDir, "SIGNAL_QUALITY.csv")
	if err := os.WriteFile(sqPath, []byte(reporting.RenderSignalQualityCSV(report.SignalQuality)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing signal quality: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", sqPath)
}

// reportFromFiles rebuilds the run summary from the two output CSVs.
func reportFromFiles(ticker, tradesPath, dailyLogPath string) (*reporting.Report, error) {
	var trades []*domain.TradeRecord
	if tradesPath != "" {
		f, err := os.Open(tradesPath)
		if err != nil {
			return nil, fmt.Errorf("open trades csv: %w", err)
		}
		trades, err = reporting.ParseTradesCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse trades csv: %w", err)
		}
	}

	var logs []*domain.DailyLogRecord
	if dailyLogPath != "" {
		f, err := os.Open(dailyLogPath)
		if err != nil {
			return nil, fmt.Errorf("open daily log csv: %w", err)
		}
		logs, err = reporting.ParseDailyLogCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse daily log csv: %w", err)
		}
	}

	strategyID := ""
	if len(trades) > 0 {
		strategyID = trades[0].StrategyID
	}

	return &reporting.Report{
		GeneratedAt:   time.Now().UTC(),
		Ticker:        ticker,
		StrategyID:    strategyID,
		TradeCount:    len(trades),
		DailyLogCount: len(logs),
		Performance:   metrics.ComputePerformance(trades),
		SignalQuality: metrics.AnalyzeSignalQuality(trades, logs),
		Trades:        trades,
	}, nil
}

// reportFromStores pulls both streams from the configured backends. Either
// backend may be omitted; the missing stream falls back to an empty memory
// store.
func reportFromStores(ctx context.Context, ticker, postgresDSN, clickhouseDSN string) (*reporting.Report, error) {
	var tradeStore storage.TradeRecordStore = memory.NewTradeRecordStore()
	var dailyLogStore storage.DailyLogStore = memory.NewDailyLogStore()

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		tradeStore = pgstore.NewTradeRecordStore(pool)
	}

	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		dailyLogStore = chstore.NewDailyLogStore(conn)
	}

	gen := reporting.NewGenerator(tradeStore, dailyLogStore)
	return gen.Generate(ctx, ticker)
}
