package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/auditcore/cryptoagent/config"
)

func TestRecordQueryEventAggregates(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: true})

	tele.RecordQueryEvent(QueryEvent{
		QueryID:         "q_1",
		Category:        "combined",
		KBDispatched:    true,
		PriceDispatched: true,
		KBResults:       2,
		PriceResults:    0,
		KBDuration:      10 * time.Millisecond,
		PriceDuration:   5 * time.Millisecond,
		TotalDuration:   12 * time.Millisecond,
		Success:         true,
	})
	tele.RecordQueryEvent(QueryEvent{
		QueryID:  "q_2",
		Category: "invalid",
		Success:  false,
		Error:    "query is required",
	})

	snap := tele.GetMetrics()
	if snap.TotalQueries != 2 {
		t.Fatalf("expected 2 queries, got %d", snap.TotalQueries)
	}
	if snap.FailedQueries != 1 {
		t.Fatalf("expected 1 failure, got %d", snap.FailedQueries)
	}
	if snap.QueriesByCategory["combined"] != 1 {
		t.Fatalf("category counts wrong: %v", snap.QueriesByCategory)
	}
	if snap.KBDispatches != 1 || snap.PriceDispatches != 1 {
		t.Fatalf("dispatch counts wrong: %+v", snap)
	}
	if snap.PriceEmpty != 1 || snap.KBEmpty != 0 {
		t.Fatalf("empty-branch counts wrong: %+v", snap)
	}

	if v := testutil.ToFloat64(tele.queriesTotal.WithLabelValues("combined")); v != 1 {
		t.Fatalf("prometheus counter expected 1, got %v", v)
	}
	if v := testutil.ToFloat64(tele.queryFailures); v != 1 {
		t.Fatalf("prometheus failure counter expected 1, got %v", v)
	}
}

func TestRecordQueryEventDisabled(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: false})
	tele.RecordQueryEvent(QueryEvent{QueryID: "q_1", Category: "auto", Success: true})

	if snap := tele.GetMetrics(); snap.TotalQueries != 0 {
		t.Fatalf("disabled telemetry must not record, got %+v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: true})
	tele.RecordQueryEvent(QueryEvent{QueryID: "q_1", Category: "auto", Success: true})

	snap := tele.GetMetrics()
	snap.QueriesByCategory["auto"] = 99

	if tele.GetMetrics().QueriesByCategory["auto"] != 1 {
		t.Fatalf("snapshot must not alias internal state")
	}
}
