// Package ingest loads tabular OHLCV series and prepares them for the
// pipeline: duplicate dates are dropped (keep-first), timezone information
// is normalized away, and the series is ordered by date.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"equity-pattern-lab/internal/domain"
)

// Ingest errors.
var (
	ErrEmptyInput     = errors.New("input contains no data rows")
	ErrMissingColumns = errors.New("input is missing required columns")
)

var requiredColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// Date layouts accepted on ingest. Timezone-aware layouts are normalized
// to bare UTC dates before indexing.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// ReadBarsFile reads a price bar series from a CSV file. A missing or
// unreadable primary input is a fatal error for the run.
func ReadBarsFile(path string) ([]domain.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := ParseBars(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bars, nil
}

// ParseBars parses a CSV series with columns Date,Open,High,Low,Close,Volume.
// Duplicate dates are deduplicated keeping the first row; the result is
// ordered by date ascending.
func ParseBars(r io.Reader) ([]domain.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.PriceBar
	seen := make(map[time.Time]struct{})

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		bar, err := parseBar(record, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		// Keep-first policy on duplicate dates.
		if _, dup := seen[bar.Date]; dup {
			continue
		}
		seen[bar.Date] = struct{}{}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, ErrEmptyInput
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	return bars, nil
}

// columnIndex maps required column names to positions, case-insensitively.
func columnIndex(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := make(map[string]int, len(requiredColumns))
	for _, name := range requiredColumns {
		idx, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumns, name)
		}
		cols[name] = idx
	}
	return cols, nil
}

func parseBar(record []string, cols map[string]int) (domain.PriceBar, error) {
	date, err := parseDate(record[cols["Date"]])
	if err != nil {
		return domain.PriceBar{}, err
	}

	fields := [5]float64{}
	for i, name := range []string{"Open", "High", "Low", "Close", "Volume"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[cols[name]]), 64)
		if err != nil {
			return domain.PriceBar{}, fmt.Errorf("parse %s: %w", name, err)
		}
		fields[i] = v
	}

	return domain.PriceBar{
		Date:   date,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

// parseDate accepts the supported layouts and strips time-of-day and
// timezone, returning a UTC midnight date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
