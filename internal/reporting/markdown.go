package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RenderMarkdown renders the run summary as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", r.Ticker))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategy: %s\n\n", r.StrategyID))

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Performance.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate (%%) | %.2f |\n", r.Performance.WinRate))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(r.Performance.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Evaluable Days Logged | %d |\n", r.DailyLogCount))
	sb.WriteString("\n")

	// Signal quality
	sb.WriteString("## Signal Quality by Outcome\n\n")
	if len(r.SignalQuality) > 0 {
		for _, q := range r.SignalQuality {
			sb.WriteString(fmt.Sprintf("### %s (%d trades)\n\n", q.Outcome, q.Trades))
			sb.WriteString("| Feature | Count | Mean | Std | Min | Max |\n")
			sb.WriteString("|---------|-------|------|-----|-----|-----|\n")
			for _, f := range q.Features {
				sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.2f | %.2f |\n",
					f.Feature, f.Count, f.Mean, f.Std, f.Min, f.Max))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No trades to analyze.\n\n")
	}

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Entry Date | Entry | Score | Stop | Target | Outcome | Fwd Return (%) |\n")
		sb.WriteString("|------------|-------|-------|------|--------|---------|----------------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %s | %.2f |\n",
				t.EntryDate.Format("2006-01-02"), t.EntryPrice, t.Score.FinalScore,
				t.StopLoss, t.TakeProfit, t.Outcome, t.ForwardReturnPct))
		}
	} else {
		sb.WriteString("No trades were triggered.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
