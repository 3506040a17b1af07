package reporting

import (
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/metrics"
)

// Report is the run summary produced after a backtest: performance metrics
// plus the signal-quality correlation of score components to outcomes.
type Report struct {
	GeneratedAt time.Time
	Ticker      string
	StrategyID  string

	TradeCount    int
	DailyLogCount int

	Performance   metrics.Performance
	SignalQuality []metrics.OutcomeQuality

	Trades []*domain.TradeRecord
}
