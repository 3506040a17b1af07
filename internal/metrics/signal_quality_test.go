package metrics

import (
	"testing"
	"time"

	"equity-pattern-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func qualityFixture() ([]*domain.TradeRecord, []*domain.DailyLogRecord) {
	trades := []*domain.TradeRecord{
		{EntryDate: day(0), Outcome: domain.OutcomeTakeProfitHit},
		{EntryDate: day(1), Outcome: domain.OutcomeTakeProfitHit},
		{EntryDate: day(2), Outcome: domain.OutcomeStopLossHit},
	}
	logs := []*domain.DailyLogRecord{
		{Date: day(0), Price: 100, ATR: 2, Score: domain.ScoreResult{MomentumScore: 2, VolumeScore: 1}},
		{Date: day(1), Price: 100, ATR: 4, Score: domain.ScoreResult{MomentumScore: 4, VolumeScore: 3}},
		{Date: day(2), Price: 100, ATR: 3, Score: domain.ScoreResult{MomentumScore: 1}},
	}
	return trades, logs
}

func TestAnalyzeSignalQuality_GroupsAndStats(t *testing.T) {
	trades, logs := qualityFixture()
	quality := AnalyzeSignalQuality(trades, logs)

	if len(quality) != 2 {
		t.Fatalf("expected 2 outcome groups, got %d", len(quality))
	}
	// Groups come out sorted by outcome label.
	if quality[0].Outcome != domain.OutcomeStopLossHit {
		t.Errorf("first group = %s, want STOP_LOSS_HIT", quality[0].Outcome)
	}
	if quality[1].Outcome != domain.OutcomeTakeProfitHit {
		t.Errorf("second group = %s, want TAKE_PROFIT_HIT", quality[1].Outcome)
	}
	if quality[0].Trades != 1 || quality[1].Trades != 2 {
		t.Errorf("group sizes = %d/%d, want 1/2", quality[0].Trades, quality[1].Trades)
	}

	tp := quality[1]
	if len(tp.Features) != 5 {
		t.Fatalf("expected 5 features, got %d", len(tp.Features))
	}

	momentum := tp.Features[0]
	if momentum.Feature != "momentum_score" {
		t.Fatalf("first feature = %s", momentum.Feature)
	}
	if momentum.Count != 2 || momentum.Mean != 3 || momentum.Min != 2 || momentum.Max != 4 {
		t.Errorf("momentum stats = %+v", momentum)
	}
	// Sample std of {2, 4} is sqrt(2).
	if momentum.Std != 1.41 {
		t.Errorf("momentum std = %v, want 1.41", momentum.Std)
	}

	atrPct := tp.Features[4]
	if atrPct.Feature != "atr_pct" {
		t.Fatalf("last feature = %s", atrPct.Feature)
	}
	if atrPct.Mean != 3 || atrPct.Min != 2 || atrPct.Max != 4 {
		t.Errorf("atr_pct stats = %+v", atrPct)
	}
}

func TestAnalyzeSignalQuality_SingleSampleStdZero(t *testing.T) {
	trades, logs := qualityFixture()
	quality := AnalyzeSignalQuality(trades, logs)

	for _, f := range quality[0].Features {
		if f.Std != 0 {
			t.Errorf("%s: std of a single sample must be 0, got %v", f.Feature, f.Std)
		}
	}
}

func TestAnalyzeSignalQuality_UnmatchedTradeDropped(t *testing.T) {
	trades, logs := qualityFixture()
	trades = append(trades, &domain.TradeRecord{
		EntryDate: day(99),
		Outcome:   domain.OutcomeHoldToHorizon,
	})

	quality := AnalyzeSignalQuality(trades, logs)
	for _, q := range quality {
		if q.Outcome == domain.OutcomeHoldToHorizon {
			t.Error("trade without a matching log row must be dropped from the join")
		}
	}
}

func TestAnalyzeSignalQuality_EmptyInputs(t *testing.T) {
	trades, logs := qualityFixture()

	if got := AnalyzeSignalQuality(nil, logs); got != nil {
		t.Errorf("expected nil for no trades, got %v", got)
	}
	if got := AnalyzeSignalQuality(trades, nil); got != nil {
		t.Errorf("expected nil for no logs, got %v", got)
	}
}
