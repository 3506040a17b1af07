// Package memory provides in-memory store implementations used as the
// default backend and in tests. All stores are safe for concurrent use and
// return defensive copies.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]domain.PriceBar // keyed by (ticker, date)
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]domain.PriceBar),
	}
}

// barKey generates a unique key for a price bar.
func barKey(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, date.Format("2006-01-02"))
}

// InsertBulk adds multiple bars for a ticker. Fails entire batch on duplicate.
func (s *PriceBarStore) InsertBulk(_ context.Context, ticker string, bars []domain.PriceBar) error {
	if ticker == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(bars))

	// First pass: check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := barKey(ticker, b.Date)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		s.data[barKey(ticker, b.Date)] = b
	}

	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
func (s *PriceBarStore) GetByTicker(ctx context.Context, ticker string) ([]domain.PriceBar, error) {
	return s.GetByDateRange(ctx, ticker, time.Time{}, time.Time{})
}

// GetByDateRange retrieves bars for a ticker within [from, to] (inclusive).
// Zero-value bounds are open-ended.
func (s *PriceBarStore) GetByDateRange(_ context.Context, ticker string, from, to time.Time) ([]domain.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := ticker + "|"
	var result []domain.PriceBar
	for key, b := range s.data {
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		result = append(result, b)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
