package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics

	// None of these may panic on a nil receiver.
	timer := m.StartRun()
	timer.Done()
	m.ObserveRun(10, 2)
	m.ObserveLLMCall(time.Second, 100)
	m.ObserveLLMFailure("API_HTTP_ERROR")
	m.ObserveAuditRecord()

	if m.Handler() == nil {
		t.Error("nil metrics must still serve a handler")
	}
}

func TestMetrics_HandlerServesCounters(t *testing.T) {
	m := New()
	m.ObserveRun(5, 1)
	m.StartRun().Done()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"backtest_days_evaluated_total",
		"backtest_trades_simulated_total",
		"backtest_runs_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
