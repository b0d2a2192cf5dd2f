package ports

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	// RecordSkip notes an output that degraded gracefully (missing column,
	// empty group, too little data to fit).
	RecordSkip(stage string, reason string)
}

type Field struct {
	Key   string
	Value any
}

// Metric names understood by the default observability adapter.
const (
	MetricRenders        = "infraboard_renders_total"
	MetricRenderFailures = "infraboard_render_failures_total"
	MetricPublished      = "infraboard_reports_published_total"
	MetricRowsLoaded     = "infraboard_rows_loaded"
	MetricRowsDropped    = "infraboard_rows_dropped"
	MetricStageLatency   = "infraboard_stage_latency_seconds"
	MetricOutboxPending  = "infraboard_outbox_pending"
)
