package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/molscore/pkg/errors"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Default buckets.  Engine runs start a Python process, so they sit in the
// seconds range, unlike HTTP handling around a cached score.
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultEngineDurationBuckets = []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120, 300}
)

// ScoringMetrics holds every metric molscore records.
type ScoringMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Scoring
	ScoreRequestsTotal CounterVec
	ScoreDuration      HistogramVec
	EngineRunsTotal    CounterVec
	EngineRunDuration  HistogramVec
	EngineInFlight     GaugeVec

	// Infrastructure
	CacheHitsTotal          CounterVec
	CacheMissesTotal        CounterVec
	ArtifactCleanupFailures CounterVec
	ArchiveWritesTotal      CounterVec
	MessagesProcessedTotal  CounterVec
	MessageProcessDuration  HistogramVec
	ConfigReloadsTotal      CounterVec
	HealthCheckStatus       GaugeVec
}

// NewScoringMetrics registers every metric on collector.
func NewScoringMetrics(collector MetricsCollector) *ScoringMetrics {
	m := &ScoringMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")

	m.ScoreRequestsTotal = collector.RegisterCounter("score_requests_total", "Scoring requests by property and result code", "property", "code")
	m.ScoreDuration = collector.RegisterHistogram("score_duration_seconds", "End-to-end scoring duration", DefaultEngineDurationBuckets, "property")
	m.EngineRunsTotal = collector.RegisterCounter("engine_runs_total", "Scoring engine invocations", "property", "outcome")
	m.EngineRunDuration = collector.RegisterHistogram("engine_run_duration_seconds", "Scoring engine invocation duration", DefaultEngineDurationBuckets, "property")
	m.EngineInFlight = collector.RegisterGauge("engine_in_flight", "Scoring engine invocations in progress")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Score cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Score cache misses", "cache")
	m.ArtifactCleanupFailures = collector.RegisterCounter("artifact_cleanup_failures_total", "Transfer artifacts that could not be removed")
	m.ArchiveWritesTotal = collector.RegisterCounter("archive_writes_total", "Run archive uploads", "outcome")
	m.MessagesProcessedTotal = collector.RegisterCounter("mq_messages_processed_total", "Queue messages processed", "topic", "outcome")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Queue message processing duration", DefaultEngineDurationBuckets, "topic")
	m.ConfigReloadsTotal = collector.RegisterCounter("config_reloads_total", "Configuration hot reloads", "outcome")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveScore records a finished Score call; err's code becomes the label.
func (m *ScoringMetrics) ObserveScore(property string, err error, d time.Duration) {
	m.ScoreRequestsTotal.WithLabelValues(property, errors.GetCode(err).String()).Inc()
	m.ScoreDuration.WithLabelValues(property).Observe(d.Seconds())
}

// ObserveEngineRun records one engine invocation.
func (m *ScoringMetrics) ObserveEngineRun(property string, err error, d time.Duration) {
	m.EngineRunsTotal.WithLabelValues(property, outcome(err)).Inc()
	m.EngineRunDuration.WithLabelValues(property).Observe(d.Seconds())
}

// EngineStarted and EngineFinished bracket an engine invocation.
func (m *ScoringMetrics) EngineStarted()  { m.EngineInFlight.WithLabelValues().Inc() }
func (m *ScoringMetrics) EngineFinished() { m.EngineInFlight.WithLabelValues().Dec() }

// CacheAccess records a score cache lookup.
func (m *ScoringMetrics) CacheAccess(hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues("score").Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues("score").Inc()
}

// ArtifactCleanupFailed counts an artifact left behind.  Its signature
// matches engine.CleanupHook.
func (m *ScoringMetrics) ArtifactCleanupFailed(string, error) {
	m.ArtifactCleanupFailures.WithLabelValues().Inc()
}

// ArchiveWritten records a run archive upload.
func (m *ScoringMetrics) ArchiveWritten(err error) {
	m.ArchiveWritesTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveMessage records one consumed queue message.
func (m *ScoringMetrics) ObserveMessage(topic string, err error, d time.Duration) {
	m.MessagesProcessedTotal.WithLabelValues(topic, outcome(err)).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(d.Seconds())
}

// ConfigReloaded records a hot reload attempt.
func (m *ScoringMetrics) ConfigReloaded(err error) {
	m.ConfigReloadsTotal.WithLabelValues(outcome(err)).Inc()
}

// SetHealth sets component's health gauge.
func (m *ScoringMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordHTTPRequest records one served request.  route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *ScoringMetrics) RecordHTTPRequest(method, route string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

//Personal.AI order the ending
