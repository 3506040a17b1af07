package ingest

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"equity-pattern-lab/internal/domain"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseBars_Basic(t *testing.T) {
	input := `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,5000
2024-01-03,101,103,100,102,6000
`
	bars, err := ParseBars(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	want := domain.PriceBar{
		Date: date(2024, 1, 2), Open: 100, High: 102, Low: 99, Close: 101, Volume: 5000,
	}
	if bars[0] != want {
		t.Errorf("bars[0] = %+v, want %+v", bars[0], want)
	}
}

func TestParseBars_ColumnOrderAndCase(t *testing.T) {
	// Extra columns and mixed case are tolerated; position is taken from
	// the header, not assumed.
	input := `close,DATE,volume,open,high,LOW,AdjClose
101,2024-01-02,5000,100,102,99,100.5
`
	bars, err := ParseBars(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBars: %v", err)
	}
	if bars[0].Close != 101 || bars[0].Open != 100 {
		t.Errorf("columns mismapped: %+v", bars[0])
	}
}

func TestParseBars_DuplicateDatesKeepFirst(t *testing.T) {
	input := `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,5000
2024-01-02,200,202,199,201,9000
`
	bars, err := ParseBars(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBars: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar after dedup, got %d", len(bars))
	}
	if bars[0].Close != 101 {
		t.Errorf("dedup must keep the first row, got close %v", bars[0].Close)
	}
}

func TestParseBars_SortedAscending(t *testing.T) {
	input := `Date,Open,High,Low,Close,Volume
2024-01-05,100,102,99,101,5000
2024-01-02,100,102,99,101,5000
2024-01-03,100,102,99,101,5000
`
	bars, err := ParseBars(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBars: %v", err)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Date.Before(bars[i].Date) {
			t.Fatalf("bars not sorted: %v before %v", bars[i-1].Date, bars[i].Date)
		}
	}
}

func TestParseBars_TimezoneNormalized(t *testing.T) {
	input := `Date,Open,High,Low,Close,Volume
2024-01-02 15:30:00-05:00,100,102,99,101,5000
2024-01-03T09:00:00Z,100,102,99,102,5000
`
	bars, err := ParseBars(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBars: %v", err)
	}
	if !bars[0].Date.Equal(date(2024, 1, 2)) {
		t.Errorf("bars[0].Date = %v, want UTC midnight 2024-01-02", bars[0].Date)
	}
	if !bars[1].Date.Equal(date(2024, 1, 3)) {
		t.Errorf("bars[1].Date = %v, want UTC midnight 2024-01-03", bars[1].Date)
	}
}

func TestParseBars_Errors(t *testing.T) {
	if _, err := ParseBars(strings.NewReader("")); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty input: err = %v, want ErrEmptyInput", err)
	}

	headerOnly := "Date,Open,High,Low,Close,Volume\n"
	if _, err := ParseBars(strings.NewReader(headerOnly)); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("header only: err = %v, want ErrEmptyInput", err)
	}

	missing := "Date,Open,High,Low,Volume\n2024-01-02,100,102,99,5000\n"
	if _, err := ParseBars(strings.NewReader(missing)); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("missing column: err = %v, want ErrMissingColumns", err)
	}

	badDate := "Date,Open,High,Low,Close,Volume\nnot-a-date,100,102,99,101,5000\n"
	if _, err := ParseBars(strings.NewReader(badDate)); err == nil {
		t.Error("expected an error for an unparseable date")
	}
}

func TestWriteBars_RoundTrip(t *testing.T) {
	bars := []domain.PriceBar{
		{Date: date(2024, 1, 2), Open: 100, High: 102.5, Low: 99.25, Close: 101, Volume: 5000},
		{Date: date(2024, 1, 3), Open: 101, High: 103, Low: 100, Close: 102, Volume: 6000},
	}

	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := WriteBarsFile(path, bars); err != nil {
		t.Fatalf("WriteBarsFile: %v", err)
	}

	got, err := ReadBarsFile(path)
	if err != nil {
		t.Fatalf("ReadBarsFile: %v", err)
	}
	if !reflect.DeepEqual(got, bars) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, bars)
	}
}

func TestReadBarsFile_Missing(t *testing.T) {
	if _, err := ReadBarsFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
