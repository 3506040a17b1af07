package clickhouse

import (
	"context"
	"fmt"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/storage"
)

// DailyLogStore implements storage.DailyLogStore using ClickHouse.
type DailyLogStore struct {
	conn *Conn
}

// NewDailyLogStore creates a new DailyLogStore.
func NewDailyLogStore(conn *Conn) *DailyLogStore {
	return &DailyLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DailyLogStore = (*DailyLogStore)(nil)

// InsertBulk adds multiple records. Fails entire batch on duplicate
// (ticker, date). Duplicates are checked explicitly before the batch insert.
func (s *DailyLogStore) InsertBulk(ctx context.Context, logs []*domain.DailyLogRecord) error {
	if len(logs) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		ticker string
		date   time.Time
	}
	seen := make(map[key]struct{}, len(logs))
	for _, l := range logs {
		if l == nil || l.Ticker == "" {
			return storage.ErrInvalidInput
		}
		k := key{l.Ticker, l.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, l := range logs {
		exists, err := s.exists(ctx, l.Ticker, l.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_logs (
			ticker, date, price, sma_fast, atr,
			momentum_score, volume_score, trend_score, volatility_score,
			final_score, description
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, l := range logs {
		err = batch.Append(
			l.Ticker, l.Date, l.Price, l.SMAFast, l.ATR,
			l.Score.MomentumScore, l.Score.VolumeScore, l.Score.TrendScore, l.Score.VolatilityScore,
			l.Score.FinalScore, l.Score.Description,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTicker retrieves all records for a ticker, ordered by date ASC.
func (s *DailyLogStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.DailyLogRecord, error) {
	query := `
		SELECT ticker, date, price, sma_fast, atr,
			momentum_score, volume_score, trend_score, volatility_score,
			final_score, description
		FROM daily_logs
		WHERE ticker = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query by ticker: %w", err)
	}
	defer rows.Close()

	return scanDailyLogs(rows)
}

// exists checks if a record with the given key exists.
func (s *DailyLogStore) exists(ctx context.Context, ticker string, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM daily_logs
		WHERE ticker = ? AND date = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, ticker, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanDailyLogs scans multiple rows.
func scanDailyLogs(rows chRows) ([]*domain.DailyLogRecord, error) {
	var logs []*domain.DailyLogRecord

	for rows.Next() {
		var l domain.DailyLogRecord

		err := rows.Scan(
			&l.Ticker, &l.Date, &l.Price, &l.SMAFast, &l.ATR,
			&l.Score.MomentumScore, &l.Score.VolumeScore, &l.Score.TrendScore, &l.Score.VolatilityScore,
			&l.Score.FinalScore, &l.Score.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily log row: %w", err)
		}

		l.Date = l.Date.UTC()
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily log rows: %w", err)
	}

	return logs, nil
}
