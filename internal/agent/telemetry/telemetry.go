package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/auditcore/cryptoagent/config"
)

// Telemetry aggregates per-query observations in memory and exposes them as
// prometheus series. It holds operational counters only; nothing here is
// request state.
type Telemetry struct {
	config  config.TelemetryConfig
	logger  *log.Logger
	metrics *Metrics

	registry       *prometheus.Registry
	queriesTotal   *prometheus.CounterVec
	queryFailures  prometheus.Counter
	branchDuration *prometheus.HistogramVec
	branchFailures *prometheus.CounterVec
}

// Metrics holds aggregate counters guarded by a mutex.
type Metrics struct {
	mu sync.RWMutex

	TotalQueries      int64
	FailedQueries     int64
	QueriesByCategory map[string]int64

	KBDispatches    int64
	PriceDispatches int64
	KBEmpty         int64
	PriceEmpty      int64

	TotalProcessingTime time.Duration
}

// QueryEvent is one completed agent request.
type QueryEvent struct {
	QueryID         string
	Query           string
	Category        string
	KBDispatched    bool
	PriceDispatched bool
	KBResults       int
	PriceResults    int
	KBDuration      time.Duration
	PriceDuration   time.Duration
	TotalDuration   time.Duration
	Success         bool
	Error           string
}

// MetricsSnapshot is a copy of the aggregate counters safe to hand out.
type MetricsSnapshot struct {
	TotalQueries        int64
	FailedQueries       int64
	QueriesByCategory   map[string]int64
	KBDispatches        int64
	PriceDispatches     int64
	KBEmpty             int64
	PriceEmpty          int64
	TotalProcessingTime time.Duration
}

// NewTelemetry creates a telemetry instance with its own prometheus registry.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			QueriesByCategory: make(map[string]int64),
		},
		registry: prometheus.NewRegistry(),
	}

	t.queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptoagent",
		Name:      "queries_total",
		Help:      "Agent queries handled, by resolved category.",
	}, []string{"category"})
	t.queryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cryptoagent",
		Name:      "query_failures_total",
		Help:      "Agent queries that ended in a caller-visible error.",
	})
	t.branchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cryptoagent",
		Name:      "branch_duration_seconds",
		Help:      "Wall-clock duration of dispatched provider branches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"branch"})
	t.branchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptoagent",
		Name:      "branch_empty_total",
		Help:      "Dispatched branches that produced no results.",
	}, []string{"branch"})

	t.registry.MustRegister(t.queriesTotal, t.queryFailures, t.branchDuration, t.branchFailures)
	return t
}

// Registry exposes the prometheus registry for the /metrics endpoint.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// RecordQueryEvent folds one completed request into the aggregates.
func (t *Telemetry) RecordQueryEvent(event QueryEvent) {
	if !t.config.Enabled {
		return
	}

	t.metrics.mu.Lock()
	t.metrics.TotalQueries++
	t.metrics.QueriesByCategory[event.Category]++
	if !event.Success {
		t.metrics.FailedQueries++
	}
	if event.KBDispatched {
		t.metrics.KBDispatches++
		if event.KBResults == 0 {
			t.metrics.KBEmpty++
		}
	}
	if event.PriceDispatched {
		t.metrics.PriceDispatches++
		if event.PriceResults == 0 {
			t.metrics.PriceEmpty++
		}
	}
	t.metrics.TotalProcessingTime += event.TotalDuration
	t.metrics.mu.Unlock()

	t.queriesTotal.WithLabelValues(event.Category).Inc()
	if !event.Success {
		t.queryFailures.Inc()
	}
	if event.KBDispatched {
		t.branchDuration.WithLabelValues("kb").Observe(event.KBDuration.Seconds())
		if event.KBResults == 0 {
			t.branchFailures.WithLabelValues("kb").Inc()
		}
	}
	if event.PriceDispatched {
		t.branchDuration.WithLabelValues("price").Observe(event.PriceDuration.Seconds())
		if event.PriceResults == 0 {
			t.branchFailures.WithLabelValues("price").Inc()
		}
	}

	if t.config.PeriodicLogs {
		t.logger.Printf("query %s category=%s kb=%d price=%d total=%v",
			event.QueryID, event.Category, event.KBResults, event.PriceResults, event.TotalDuration)
	}
}

// GetMetrics returns a snapshot of the aggregate counters.
func (t *Telemetry) GetMetrics() MetricsSnapshot {
	t.metrics.mu.RLock()
	defer t.metrics.mu.RUnlock()

	byCategory := make(map[string]int64, len(t.metrics.QueriesByCategory))
	for k, v := range t.metrics.QueriesByCategory {
		byCategory[k] = v
	}
	return MetricsSnapshot{
		TotalQueries:        t.metrics.TotalQueries,
		FailedQueries:       t.metrics.FailedQueries,
		QueriesByCategory:   byCategory,
		KBDispatches:        t.metrics.KBDispatches,
		PriceDispatches:     t.metrics.PriceDispatches,
		KBEmpty:             t.metrics.KBEmpty,
		PriceEmpty:          t.metrics.PriceEmpty,
		TotalProcessingTime: t.metrics.TotalProcessingTime,
	}
}
