// Package metrics provides Prometheus collectors for extraction and gap
// analysis.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractLinesTotal counts input lines by the strategy that claimed them
// ("day_of_week", "absolute_date", "none").
var ExtractLinesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "extract",
	Name:      "lines_total",
	Help:      "Input lines processed, by matching strategy",
}, []string{"strategy"})

// ExtractEventsTotal counts events emitted by the text extractor.
var ExtractEventsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "extract",
	Name:      "events_total",
	Help:      "Events produced by the heuristic text extractor",
})

// ExtractWarningsTotal counts recoverable token failures by kind.
var ExtractWarningsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "extract",
	Name:      "warnings_total",
	Help:      "Malformed date/time tokens skipped during extraction",
}, []string{"kind"})

// ParserRecordsTotal counts structured records converted into events.
var ParserRecordsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_total",
	Help:      "Structured calendar records converted into events",
})

// ParserRecordsDropped counts structured records dropped for invalid dates.
var ParserRecordsDropped = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_dropped_total",
	Help:      "Structured calendar records dropped because of invalid dates",
})

// =============================================================================
// ANALYSIS
// =============================================================================

// AnalyzerDurationSeconds tracks time to run one gap analysis.
var AnalyzerDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "analyzer",
	Name:      "duration_seconds",
	Help:      "Time taken to run one gap analysis",
	Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
})

// AnalyzerEventsSkipped counts events ignored because of invalid timestamps.
var AnalyzerEventsSkipped = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "analyzer",
	Name:      "events_skipped_total",
	Help:      "Events skipped by the analyzer because of invalid timestamps",
})

// LastTotalGaps holds the total gap of the most recent analysis.
var LastTotalGaps = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "analyzer",
	Name:      "last_total_gaps",
	Help:      "Sum of hourly gaps in the most recent analysis",
})

// LastCriticalHours holds the critical gap count of the most recent analysis.
var LastCriticalHours = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "analyzer",
	Name:      "last_critical_hours",
	Help:      "Number of critical hours in the most recent analysis",
})

// =============================================================================
// REFRESH
// =============================================================================

// RefreshTotal counts background refresh runs by result ("ok", "error", "empty").
var RefreshTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "refresh",
	Name:      "runs_total",
	Help:      "Background source refresh runs by result",
}, []string{"result"})

// =============================================================================
// HTTP
// =============================================================================

// HTTPRequestsTotal counts API requests by method, route pattern and status.
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "http",
	Name:      "requests_total",
	Help:      "HTTP requests handled, by method, route and status",
}, []string{"method", "route", "status"})

// HTTPRequestDuration tracks API latency by route pattern.
var HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})
