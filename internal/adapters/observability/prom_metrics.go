package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/InfraBoard/internal/ports"
)

type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	stages   *prometheus.HistogramVec
	skipped  *prometheus.CounterVec
}

// NewPromObs logs JSON to stderr.
func NewPromObs() *PromObs {
	return NewPromObsWithWriter(os.Stderr)
}

func NewPromObsWithWriter(w io.Writer) *PromObs {
	renders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricRenders,
		Help: "Reports rendered successfully.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricRenderFailures,
		Help: "Report renders aborted by a fatal error.",
	})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricPublished,
		Help: "Reports handed to the sink or the message bus.",
	})
	rows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricRowsLoaded,
		Help: "Rows in the most recently loaded infrastructure dataset.",
	})
	dropped := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricRowsDropped,
		Help: "Rows dropped from the most recent load because the date did not parse.",
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricOutboxPending,
		Help: "Reports waiting in the outbox for redelivery to the sink.",
	})
	stages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    ports.MetricStageLatency,
		Help:    "Latency of each report stage.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"stage"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "infraboard_outputs_skipped_total",
		Help: "Report outputs omitted because their inputs were missing or too small.",
	}, []string{"stage"})

	prometheus.MustRegister(renders, failures, published, rows, dropped, pending, stages, skipped)

	return &PromObs{
		logger: slog.New(slog.NewJSONHandler(w, nil)),
		counters: map[string]prometheus.Counter{
			ports.MetricRenders:        renders,
			ports.MetricRenderFailures: failures,
			ports.MetricPublished:      published,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricRowsLoaded:    rows,
			ports.MetricRowsDropped:   dropped,
			ports.MetricOutboxPending: pending,
		},
		stages:  stages,
		skipped: skipped,
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		fields = append(fields, ports.Field{Key: "error", Value: err.Error()})
	}
	p.logger.Error(msg, attrs(fields)...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		fields = append(fields, ports.Field{Key: "error", Value: err.Error()})
	}
	fields = append(fields, ports.Field{Key: "critical", Value: true})
	p.logger.Error(msg, attrs(fields)...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

// ObserveLatency records seconds against the stage called name.
func (p *PromObs) ObserveLatency(name string, seconds float64) {
	p.stages.WithLabelValues(name).Observe(seconds)
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordSkip(stage string, reason string) {
	p.skipped.WithLabelValues(stage).Inc()
	p.logger.Warn("output_skipped", slog.String("stage", stage), slog.String("reason", reason))
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
