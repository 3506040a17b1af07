package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equity-pattern-lab/internal/ingest"
	"equity-pattern-lab/internal/marketdata"
	chstore "equity-pattern-lab/internal/storage/clickhouse"
	"equity-pattern-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	ticker := flag.String("ticker", "", "Ticker symbol to fetch (required)")
	from := flag.String("from", "", "Start date (YYYY-MM-DD, optional)")
	to := flag.String("to", "", "End date (YYYY-MM-DD, optional)")
	endpoint := flag.String("endpoint", marketdata.DefaultEndpoint, "Quote provider endpoint")
	output := flag.String("output", "", "Output CSV path (default <ticker>.csv)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Optionally persist bars to ClickHouse")
	timeout := flag.Duration("timeout", marketdata.DefaultTimeout, "HTTP timeout per attempt")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)

	if *ticker == "" {
		logger.Fatal("--ticker is required")
	}
	if *output == "" {
		*output = *ticker + ".csv"
	}

	fromDate, err := parseDateFlag(*from)
	if err != nil {
		logger.Fatalf("invalid --from: %v", err)
	}
	toDate, err := parseDateFlag(*to)
	if err != nil {
		logger.Fatalf("invalid --to: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	client := marketdata.NewHTTPClient(
		marketdata.WithEndpoint(*endpoint),
		marketdata.WithTimeout(*timeout),
	)

	logger.Printf("Fetching %s daily bars from %s", *ticker, *endpoint)
	bars, err := client.FetchDaily(ctx, *ticker, fromDate, toDate)
	if err != nil {
		logger.Fatalf("fetch failed: %v", err)
	}
	logger.Printf("Fetched %d bars", len(bars))

	if err := ingest.WriteBarsFile(*output, bars); err != nil {
		logger.Fatalf("write output: %v", err)
	}
	logger.Printf("Wrote %s", *output)

	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()

		store := chstore.NewPriceBarStore(conn)
		if err := store.InsertBulk(ctx, *ticker, bars); err != nil {
			logger.Fatalf("persist bars: %v", err)
		}
		logger.Printf("Persisted %d bars to ClickHouse", len(bars))
	}
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
