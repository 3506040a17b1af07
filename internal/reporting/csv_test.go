package reporting

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/metrics"
)

func day(n int) time.Time {
	return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func sampleTrades() []*domain.TradeRecord {
	return []*domain.TradeRecord{
		{
			EntryDate:  day(0),
			EntryPrice: 101.25,
			Score: domain.ScoreResult{
				MomentumScore:   4,
				VolumeScore:     2.5,
				TrendScore:      3,
				VolatilityScore: 1.5,
				FinalScore:      11,
				Description:     "RS(4.0) Vol(2.5) SMA(3.0) Volatility(1.5)",
			},
			StopLoss:         97.25,
			TakeProfit:       109.25,
			Outcome:          domain.OutcomeTakeProfitHit,
			ForwardReturnPct: 8.5,
		},
		{
			EntryDate:        day(3),
			EntryPrice:       105,
			Score:            domain.ScoreResult{FinalScore: 7.5, Description: "stub"},
			StopLoss:         100,
			TakeProfit:       115,
			Outcome:          domain.OutcomeStopLossHit,
			ForwardReturnPct: -4.75,
		},
	}
}

func sampleLogs() []*domain.DailyLogRecord {
	return []*domain.DailyLogRecord{
		{
			Date:    day(0),
			Price:   101.25,
			SMAFast: 99.5,
			ATR:     2,
			Score: domain.ScoreResult{
				MomentumScore: 4, VolumeScore: 2.5, TrendScore: 3,
				VolatilityScore: 1.5, FinalScore: 11, Description: "strong",
			},
		},
		{
			Date:  day(1),
			Price: 100,
			ATR:   2.5,
			Score: domain.ScoreResult{Description: "flat"},
		},
	}
}

func TestTradesCSV_RoundTrip(t *testing.T) {
	trades := sampleTrades()

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))

	parsed, err := ParseTradesCSV(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	// Identity columns are not part of the CSV layout; compare the rest.
	for i, got := range parsed {
		want := trades[i]
		assert.True(t, got.EntryDate.Equal(want.EntryDate), "entry date %d", i)
		assert.Equal(t, want.EntryPrice, got.EntryPrice)
		assert.Equal(t, want.Score, got.Score)
		assert.Equal(t, want.StopLoss, got.StopLoss)
		assert.Equal(t, want.TakeProfit, got.TakeProfit)
		assert.Equal(t, want.Outcome, got.Outcome)
		assert.Equal(t, want.ForwardReturnPct, got.ForwardReturnPct)
	}
}

func TestWriteTradesCSV_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, strings.Join(tradesHeader, ","), lines[0])

	parsed, err := ParseTradesCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestDailyLogCSV_RoundTrip(t *testing.T) {
	logs := sampleLogs()

	var buf bytes.Buffer
	require.NoError(t, WriteDailyLogCSV(&buf, logs))

	parsed, err := ParseDailyLogCSV(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	for i, got := range parsed {
		want := logs[i]
		assert.True(t, got.Date.Equal(want.Date), "date %d", i)
		assert.Equal(t, want.Price, got.Price)
		assert.Equal(t, want.SMAFast, got.SMAFast)
		assert.Equal(t, want.ATR, got.ATR)
		assert.Equal(t, want.Score, got.Score)
	}
}

func TestParseCSV_UnexpectedHeader(t *testing.T) {
	_, err := ParseTradesCSV(strings.NewReader("a,b,c\n"))
	assert.ErrorIs(t, err, ErrUnexpectedHeader)

	_, err = ParseDailyLogCSV(strings.NewReader("date,price\n"))
	assert.ErrorIs(t, err, ErrUnexpectedHeader)
}

func TestRenderSignalQualityCSV(t *testing.T) {
	quality := []metrics.OutcomeQuality{
		{
			Outcome: domain.OutcomeTakeProfitHit,
			Trades:  2,
			Features: []metrics.FeatureStats{
				{Feature: "momentum_score", Count: 2, Mean: 3, Std: 1.41, Min: 2, Max: 4},
			},
		},
	}

	out := RenderSignalQualityCSV(quality)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "outcome,feature,count,mean,std,min,max", lines[0])
	assert.Equal(t, "TAKE_PROFIT_HIT,momentum_score,2,3.00,1.41,2.00,4.00", lines[1])
}

func TestFormatFloat_Infinity(t *testing.T) {
	assert.Equal(t, "inf", formatFloat(math.Inf(1)))
	assert.Equal(t, "2.33", formatFloat(2.33))
}
