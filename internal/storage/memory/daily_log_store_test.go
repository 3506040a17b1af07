package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/storage"
)

func logRecord(ticker string, date time.Time, price float64) *domain.DailyLogRecord {
	return &domain.DailyLogRecord{
		Ticker: ticker,
		Date:   date,
		Price:  price,
		ATR:    2,
	}
}

func TestDailyLogStore_InsertBulkAndGet(t *testing.T) {
	store := NewDailyLogStore()
	ctx := context.Background()

	logs := []*domain.DailyLogRecord{
		logRecord("AAPL", day(2), 102),
		logRecord("AAPL", day(0), 100),
		logRecord("MSFT", day(1), 300),
	}
	if err := store.InsertBulk(ctx, logs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTicker(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Ordered by date ascending.
	if !got[0].Date.Equal(day(0)) || !got[1].Date.Equal(day(2)) {
		t.Errorf("wrong order: %v, %v", got[0].Date, got[1].Date)
	}
}

func TestDailyLogStore_DuplicateKey(t *testing.T) {
	store := NewDailyLogStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.DailyLogRecord{logRecord("AAPL", day(0), 100)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.DailyLogRecord{
		logRecord("AAPL", day(1), 101),
		logRecord("AAPL", day(0), 200), // same (ticker, date)
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// All-or-nothing: the non-duplicate row must not have landed.
	got, err := store.GetByTicker(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 record after failed batch, got %d", len(got))
	}
}

func TestDailyLogStore_InvalidInput(t *testing.T) {
	store := NewDailyLogStore()
	ctx := context.Background()

	cases := []*domain.DailyLogRecord{
		nil,
		{Ticker: "", Date: day(0)},
		{Ticker: "AAPL"}, // zero date
	}
	for i, rec := range cases {
		err := store.InsertBulk(ctx, []*domain.DailyLogRecord{rec})
		if !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestDailyLogStore_EmptyBatch(t *testing.T) {
	store := NewDailyLogStore()
	if err := store.InsertBulk(context.Background(), nil); err != nil {
		t.Errorf("empty batch must be a no-op, got %v", err)
	}
}
