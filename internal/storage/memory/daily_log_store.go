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

// DailyLogStore is an in-memory implementation of storage.DailyLogStore.
type DailyLogStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyLogRecord // keyed by (ticker, date)
}

// NewDailyLogStore creates a new in-memory daily log store.
func NewDailyLogStore() *DailyLogStore {
	return &DailyLogStore{
		data: make(map[string]*domain.DailyLogRecord),
	}
}

// logKey generates a unique key for a daily log record.
func logKey(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, date.Format("2006-01-02"))
}

// InsertBulk adds multiple records. Fails entire batch on duplicate.
func (s *DailyLogStore) InsertBulk(_ context.Context, logs []*domain.DailyLogRecord) error {
	if len(logs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(logs))

	// First pass: check for duplicates (existing + intra-batch)
	for _, l := range logs {
		if l == nil || l.Ticker == "" || l.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := logKey(l.Ticker, l.Date)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, l := range logs {
		logCopy := *l
		s.data[logKey(l.Ticker, l.Date)] = &logCopy
	}

	return nil
}

// GetByTicker retrieves all records for a ticker, ordered by date ASC.
func (s *DailyLogStore) GetByTicker(_ context.Context, ticker string) ([]*domain.DailyLogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyLogRecord
	for _, l := range s.data {
		if l.Ticker == ticker {
			logCopy := *l
			result = append(result, &logCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

var _ storage.DailyLogStore = (*DailyLogStore)(nil)
