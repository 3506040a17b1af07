package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, ticker, strategy_id,
	entry_date, entry_price,
	momentum_score, volume_score, trend_score, volatility_score,
	final_score, score_description,
	stop_loss, take_profit,
	outcome, forward_return_pct
`

const insertTradeRecordQuery = `
	INSERT INTO trade_records (
		trade_id, ticker, strategy_id,
		entry_date, entry_price,
		momentum_score, volume_score, trend_score, volatility_score,
		final_score, score_description,
		stop_loss, take_profit,
		outcome, forward_return_pct
	) VALUES (
		$1, $2, $3,
		$4, $5,
		$6, $7, $8, $9,
		$10, $11,
		$12, $13,
		$14, $15
	)
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	_, err := s.pool.Exec(ctx, insertTradeRecordQuery, insertArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, insertTradeRecordQuery, insertArgs(t)...)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetByTicker retrieves all trades for a ticker, ordered by entry date ASC.
func (s *TradeRecordStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE ticker = $1
		ORDER BY entry_date ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("get trade records by ticker: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

func insertArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.Ticker, t.StrategyID,
		t.EntryDate, t.EntryPrice,
		t.Score.MomentumScore, t.Score.VolumeScore, t.Score.TrendScore, t.Score.VolatilityScore,
		t.Score.FinalScore, t.Score.Description,
		t.StopLoss, t.TakeProfit,
		t.Outcome, t.ForwardReturnPct,
	}
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord

	err := row.Scan(
		&t.TradeID, &t.Ticker, &t.StrategyID,
		&t.EntryDate, &t.EntryPrice,
		&t.Score.MomentumScore, &t.Score.VolumeScore, &t.Score.TrendScore, &t.Score.VolatilityScore,
		&t.Score.FinalScore, &t.Score.Description,
		&t.StopLoss, &t.TakeProfit,
		&t.Outcome, &t.ForwardReturnPct,
	)
	if err != nil {
		return nil, err
	}

	t.EntryDate = t.EntryDate.UTC()
	return &t, nil
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
