package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/storage"
)

func bar(date time.Time, close float64) domain.PriceBar {
	return domain.PriceBar{
		Date:   date,
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

func TestPriceBarStore_InsertBulkAndGet(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	bars := []domain.PriceBar{
		bar(day(2), 102),
		bar(day(0), 100),
		bar(day(1), 101),
	}
	if err := store.InsertBulk(ctx, "AAPL", bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTicker(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Fatalf("bars not ordered by date: %v before %v", got[i-1].Date, got[i].Date)
		}
	}
}

func TestPriceBarStore_GetByDateRange(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	var bars []domain.PriceBar
	for i := 0; i < 5; i++ {
		bars = append(bars, bar(day(i), 100+float64(i)))
	}
	if err := store.InsertBulk(ctx, "AAPL", bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByDateRange(ctx, "AAPL", day(1), day(3))
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars in [day1, day3], got %d", len(got))
	}
	if !got[0].Date.Equal(day(1)) || !got[2].Date.Equal(day(3)) {
		t.Errorf("wrong range bounds: %v .. %v", got[0].Date, got[2].Date)
	}

	// Open-ended lower bound.
	got, err = store.GetByDateRange(ctx, "AAPL", time.Time{}, day(1))
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 bars up to day1, got %d", len(got))
	}
}

func TestPriceBarStore_TickerIsolation(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "AAPL", []domain.PriceBar{bar(day(0), 100)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "MSFT", []domain.PriceBar{bar(day(0), 300)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTicker(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(got) != 1 || got[0].Close != 100 {
		t.Errorf("ticker isolation broken: %+v", got)
	}
}

func TestPriceBarStore_DuplicateKey(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "AAPL", []domain.PriceBar{bar(day(0), 100)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, "AAPL", []domain.PriceBar{
		bar(day(1), 101),
		bar(day(0), 200),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.GetByTicker(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("failed batch must be all-or-nothing, got %d bars", len(got))
	}
}

func TestPriceBarStore_InvalidInput(t *testing.T) {
	store := NewPriceBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "", []domain.PriceBar{bar(day(0), 100)}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty ticker: expected ErrInvalidInput, got %v", err)
	}
	if err := store.InsertBulk(ctx, "AAPL", []domain.PriceBar{{}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("zero date: expected ErrInvalidInput, got %v", err)
	}
}
