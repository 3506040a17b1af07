// Package reporting renders and parses the two tabular output streams and
// generates run summaries. The CSV column layouts are the stable external
// interface consumed by downstream analysis.
package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/metrics"
)

// ErrUnexpectedHeader is returned when a parsed CSV's header does not match
// the expected output layout.
var ErrUnexpectedHeader = errors.New("unexpected csv header")

// tradesHeader is output stream 1: one row per triggered signal.
var tradesHeader = []string{
	"entry_date", "entry_price",
	"pattern_score", "momentum_score", "volume_score", "trend_score", "volatility_score",
	"pattern_desc", "stop_loss", "take_profit", "outcome", "forward_return_pct",
}

// dailyLogHeader is output stream 2: one row per evaluable day.
var dailyLogHeader = []string{
	"date", "price", "sma_fast", "atr",
	"momentum_score", "volume_score", "trend_score", "volatility_score",
	"final_score", "description",
}

// WriteTradesCSV writes the trade stream. The header row is always written,
// so a run with zero trades still produces a well-formed file.
func WriteTradesCSV(w io.Writer, trades []*domain.TradeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tradesHeader); err != nil {
		return fmt.Errorf("write trades header: %w", err)
	}

	for _, t := range trades {
		row := []string{
			t.EntryDate.Format("2006-01-02"),
			formatFloat(t.EntryPrice),
			formatFloat(t.Score.FinalScore),
			formatFloat(t.Score.MomentumScore),
			formatFloat(t.Score.VolumeScore),
			formatFloat(t.Score.TrendScore),
			formatFloat(t.Score.VolatilityScore),
			t.Score.Description,
			formatFloat(t.StopLoss),
			formatFloat(t.TakeProfit),
			t.Outcome,
			formatFloat(t.ForwardReturnPct),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write trade row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDailyLogCSV writes the per-day diagnostic trail, header always
// included.
func WriteDailyLogCSV(w io.Writer, logs []*domain.DailyLogRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(dailyLogHeader); err != nil {
		return fmt.Errorf("write daily log header: %w", err)
	}

	for _, l := range logs {
		row := []string{
			l.Date.Format("2006-01-02"),
			formatFloat(l.Price),
			formatFloat(l.SMAFast),
			formatFloat(l.ATR),
			formatFloat(l.Score.MomentumScore),
			formatFloat(l.Score.VolumeScore),
			formatFloat(l.Score.TrendScore),
			formatFloat(l.Score.VolatilityScore),
			formatFloat(l.Score.FinalScore),
			l.Score.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write daily log row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderSignalQualityCSV renders the signal-quality correlation as
// long-form CSV: one row per (outcome, feature).
func RenderSignalQualityCSV(quality []metrics.OutcomeQuality) string {
	var sb strings.Builder
	sb.WriteString("outcome,feature,count,mean,std,min,max\n")
	for _, q := range quality {
		for _, f := range q.Features {
			sb.WriteString(fmt.Sprintf("%s,%s,%d,%.2f,%.2f,%.2f,%.2f\n",
				q.Outcome, f.Feature, f.Count, f.Mean, f.Std, f.Min, f.Max))
		}
	}
	return sb.String()
}

// ParseTradesCSV reads back a trades file written by WriteTradesCSV.
func ParseTradesCSV(r io.Reader) ([]*domain.TradeRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read trades header: %w", err)
	}
	if !headerMatches(header, tradesHeader) {
		return nil, ErrUnexpectedHeader
	}

	var trades []*domain.TradeRecord
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trade row: %w", err)
		}

		entryDate, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return nil, fmt.Errorf("parse entry_date: %w", err)
		}

		floats, err := parseFloats(record, []int{1, 2, 3, 4, 5, 6, 8, 9, 11})
		if err != nil {
			return nil, err
		}

		trades = append(trades, &domain.TradeRecord{
			EntryDate:  entryDate,
			EntryPrice: floats[1],
			Score: domain.ScoreResult{
				FinalScore:      floats[2],
				MomentumScore:   floats[3],
				VolumeScore:     floats[4],
				TrendScore:      floats[5],
				VolatilityScore: floats[6],
				Description:     record[7],
			},
			StopLoss:         floats[8],
			TakeProfit:       floats[9],
			Outcome:          record[10],
			ForwardReturnPct: floats[11],
		})
	}
	return trades, nil
}

// ParseDailyLogCSV reads back a daily log file written by WriteDailyLogCSV.
func ParseDailyLogCSV(r io.Reader) ([]*domain.DailyLogRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read daily log header: %w", err)
	}
	if !headerMatches(header, dailyLogHeader) {
		return nil, ErrUnexpectedHeader
	}

	var logs []*domain.DailyLogRecord
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read daily log row: %w", err)
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}

		floats, err := parseFloats(record, []int{1, 2, 3, 4, 5, 6, 7, 8})
		if err != nil {
			return nil, err
		}

		logs = append(logs, &domain.DailyLogRecord{
			Date:    date,
			Price:   floats[1],
			SMAFast: floats[2],
			ATR:     floats[3],
			Score: domain.ScoreResult{
				MomentumScore:   floats[4],
				VolumeScore:     floats[5],
				TrendScore:      floats[6],
				VolatilityScore: floats[7],
				FinalScore:      floats[8],
				Description:     record[9],
			},
		})
	}
	return logs, nil
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func parseFloats(record []string, indices []int) (map[int]float64, error) {
	out := make(map[int]float64, len(indices))
	for _, i := range indices {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return nil, fmt.Errorf("parse column %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
