package regime

import (
	"testing"
	"time"

	"equity-pattern-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func ptr(v float64) *float64 { return &v }

func TestNewFilter_EmptySeries(t *testing.T) {
	if f := NewFilter(nil); f != nil {
		t.Fatal("expected nil filter for empty series")
	}
	if f := NewFilter([]domain.MarketRegimePoint{}); f != nil {
		t.Fatal("expected nil filter for empty series")
	}
}

func TestFilter_NilAlwaysPasses(t *testing.T) {
	var f *Filter

	d := f.Lookup(day(0))
	if d.Status != StatusPass || !d.Pass() {
		t.Fatalf("nil filter must pass, got status %v", d.Status)
	}
	if w := f.Window([]time.Time{day(0), day(1)}); w != nil {
		t.Errorf("nil filter Window must be nil, got %v", w)
	}
}

func TestFilter_Lookup(t *testing.T) {
	f := NewFilter([]domain.MarketRegimePoint{
		{Date: day(0), Close: 95, LongSMA: ptr(100)},  // below SMA: blocked
		{Date: day(1), Close: 105, LongSMA: ptr(100)}, // above SMA: pass
		{Date: day(2), Close: 100, LongSMA: ptr(100)}, // equal: pass
		{Date: day(3), Close: 50, LongSMA: nil},       // SMA not warmed up: pass
	})

	cases := []struct {
		date time.Time
		want Status
	}{
		{day(0), StatusBlocked},
		{day(1), StatusPass},
		{day(2), StatusPass},
		{day(3), StatusPass},
		{day(4), StatusUnknown},
	}
	for _, tc := range cases {
		got := f.Lookup(tc.date).Status
		if got != tc.want {
			t.Errorf("Lookup(%s) = %v, want %v", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestDecision_Pass(t *testing.T) {
	if !(Decision{Status: StatusPass}).Pass() {
		t.Error("StatusPass must pass")
	}
	if (Decision{Status: StatusBlocked}).Pass() {
		t.Error("StatusBlocked must not pass")
	}
	// Missing data fails open.
	if !(Decision{Status: StatusUnknown}).Pass() {
		t.Error("StatusUnknown must pass")
	}
}

func TestFilter_WindowSkipsGaps(t *testing.T) {
	f := NewFilter([]domain.MarketRegimePoint{
		{Date: day(0), Close: 100},
		{Date: day(2), Close: 102},
	})

	w := f.Window([]time.Time{day(0), day(1), day(2)})
	if len(w) != 2 {
		t.Fatalf("expected 2 points, got %d", len(w))
	}
	if !w[0].Date.Equal(day(0)) || !w[1].Date.Equal(day(2)) {
		t.Errorf("window out of order: %v", w)
	}
}
