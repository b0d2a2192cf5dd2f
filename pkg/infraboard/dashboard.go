package infraboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/InfraBoard/internal/adapters/bus"
	"github.com/ghalamif/InfraBoard/internal/adapters/observability"
	"github.com/ghalamif/InfraBoard/internal/adapters/outbox"
	"github.com/ghalamif/InfraBoard/internal/adapters/sink"
	"github.com/ghalamif/InfraBoard/internal/adapters/source"
	"github.com/ghalamif/InfraBoard/internal/adapters/web"
	"github.com/ghalamif/InfraBoard/internal/app/forecast"
	"github.com/ghalamif/InfraBoard/internal/app/pipeline"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// DashboardOption customizes the dependencies used by Dashboard.
type DashboardOption func(*dashboardOverrides)

type dashboardOverrides struct {
	loader        Loader
	evaluation    EvaluationLoader
	forecasters   []Forecaster
	sinks         []ReportSink
	publisher     Publisher
	observability Observability
}

// WithLoader replaces the configured infrastructure dataset.
func WithLoader(l Loader) DashboardOption {
	return func(o *dashboardOverrides) {
		o.loader = l
	}
}

// WithEvaluationLoader replaces the configured evaluation dataset.
func WithEvaluationLoader(l EvaluationLoader) DashboardOption {
	return func(o *dashboardOverrides) {
		o.evaluation = l
	}
}

// WithForecaster adds a strategy after the configured ones.
func WithForecaster(f Forecaster) DashboardOption {
	return func(o *dashboardOverrides) {
		o.forecasters = append(o.forecasters, f)
	}
}

// WithSink adds a report sink. The Postgres sink from the config is still
// used when a connection string is set. Added sinks receive each report once;
// only the Postgres sink is spooled to the outbox and retried.
func WithSink(s ReportSink) DashboardOption {
	return func(o *dashboardOverrides) {
		o.sinks = append(o.sinks, s)
	}
}

// WithPublisher replaces the NATS publisher.
func WithPublisher(p Publisher) DashboardOption {
	return func(o *dashboardOverrides) {
		o.publisher = p
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) DashboardOption {
	return func(o *dashboardOverrides) {
		o.observability = obs
	}
}

// Dashboard wires datasets, the report pipeline and its outputs, and exposes
// lifecycle hooks for embedding the dashboard inside any Go service.
type Dashboard struct {
	cfg        *Config
	obs        ports.Observability
	loader     ports.Loader
	evaluation ports.EvaluationLoader
	durable    *sink.PostgresSink
	sinks      []ports.ReportSink
	publisher  ports.Publisher
	outbox     ports.Outbox
	pipeline   *pipeline.Pipeline
	handler    *web.Handler
	db         *sql.DB
	closers    []io.Closer
	httpSrv    *http.Server
	metricsSrv *http.Server
	stopRetry  context.CancelFunc
	retryDone  chan struct{}
}

// NewDashboard bootstraps the default adapters (configured datasets, forecast
// strategies, optional Postgres sink and NATS publisher, Prometheus
// observability). DashboardOption values override any of them.
func NewDashboard(cfg *Config, opts ...DashboardOption) (*Dashboard, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides dashboardOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	d := &Dashboard{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = d.closeResources()
		}
	}()

	d.obs = overrides.observability
	if d.obs == nil {
		d.obs = observability.NewPromObs()
	}

	d.loader = overrides.loader
	if d.loader == nil {
		ds, err := source.New(cfg.Datasets.Infrastructure, cfg.Columns, cfg.EvaluationColumns)
		if err != nil {
			return nil, fmt.Errorf("infrastructure dataset: %w", err)
		}
		d.track(ds)
		d.loader = ds
	}

	d.evaluation = overrides.evaluation
	if d.evaluation == nil && cfg.Datasets.Evaluation.Configured() {
		ds, err := source.New(cfg.Datasets.Evaluation, cfg.Columns, cfg.EvaluationColumns)
		if err != nil {
			return nil, fmt.Errorf("evaluation dataset: %w", err)
		}
		d.track(ds)
		d.evaluation = ds
	}

	forecasters, err := forecast.Build(cfg.Policy.Strategies, cfg.Forest)
	if err != nil {
		return nil, err
	}
	forecasters = append(forecasters, overrides.forecasters...)

	d.sinks = overrides.sinks
	if cfg.Sink.ConnString != "" {
		d.db, err = sql.Open("postgres", cfg.Sink.ConnString)
		if err != nil {
			return nil, err
		}
		d.durable, err = sink.NewPostgresSink(d.db, cfg.Sink.TablePrefix)
		if err != nil {
			return nil, err
		}

		if cfg.Outbox.Dir != "" {
			box, err := outbox.NewFileOutbox(cfg.Outbox.Dir)
			if err != nil {
				return nil, fmt.Errorf("open outbox: %w", err)
			}
			d.track(box)
			d.outbox = box
		}
	}

	d.publisher = overrides.publisher
	if d.publisher == nil && cfg.NATS.URL != "" {
		pub, err := bus.NewPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		d.publisher = pub
	}

	deps := pipeline.Deps{
		Loader:           d.loader,
		Evaluation:       d.evaluation,
		Forecasters:      forecasters,
		Policy:           cfg.Policy,
		ResourceMetrics:  cfg.ResourceMetrics,
		Evaluate:         cfg.Evaluation,
		Observability:    d.obs,
		Sinks:            d.sinks,
		Outbox:           d.outbox,
		Publisher:        d.publisher,
		RedeliverTimeout: cfg.Outbox.RetryInterval,
	}
	if d.durable != nil {
		deps.Sink = d.durable
	}
	d.pipeline, err = pipeline.New(deps)
	if err != nil {
		return nil, err
	}

	d.handler, err = web.NewHandler(d.pipeline, cfg.Presentation, d.obs)
	if err != nil {
		return nil, err
	}

	ok = true
	return d, nil
}

// Render runs one pass and returns its report.
func (d *Dashboard) Render(ctx context.Context, f Filter) (*Report, error) {
	return d.pipeline.Run(ctx, f)
}

// Handler exposes the dashboard routes for mounting in an existing server.
func (d *Dashboard) Handler() http.Handler {
	return d.handler.Routes()
}

// Preload caches the infrastructure dataset so later passes skip the read.
func (d *Dashboard) Preload(ctx context.Context) error {
	return d.pipeline.Preload(ctx)
}

// Reload drops the cached dataset; the next pass reads it again.
func (d *Dashboard) Reload() {
	d.pipeline.Invalidate()
}

// Redeliver retries reports spooled after a failed sink write.
func (d *Dashboard) Redeliver(ctx context.Context) (int, error) {
	return d.pipeline.Redeliver(ctx)
}

// EnsureSchema creates the Postgres sink tables when a sink is configured.
func (d *Dashboard) EnsureSchema(ctx context.Context) error {
	if d.durable == nil {
		return nil
	}
	return d.durable.EnsureSchema(ctx)
}

// Start launches the dashboard and metrics servers. It returns immediately;
// call Run to block on a context instead.
func (d *Dashboard) Start() error {
	if d == nil {
		return fmt.Errorf("dashboard is nil")
	}
	d.httpSrv = &http.Server{
		Addr:              d.cfg.HTTP.Addr,
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go d.serve(d.httpSrv, "dashboard_server_exited")

	if d.cfg.Metrics.Addr != "" && d.cfg.Metrics.Addr != d.cfg.HTTP.Addr {
		d.startMetrics()
	}
	if d.outbox != nil {
		d.startRetry()
	}
	d.obs.LogInfo("dashboard_started",
		ports.Field{Key: "addr", Value: d.cfg.HTTP.Addr},
		ports.Field{Key: "metrics_addr", Value: d.cfg.Metrics.Addr},
		ports.Field{Key: "source", Value: d.loader.Name()})
	return nil
}

// Run starts the servers and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Shutdown(shutdownCtx)
}

// Shutdown stops the servers and releases database and bus connections.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	var errs []error

	if d.stopRetry != nil {
		d.stopRetry()
		<-d.retryDone
		d.stopRetry = nil
	}

	for _, srv := range []*http.Server{d.httpSrv, d.metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := d.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Dashboard) closeResources() error {
	var errs []error
	if d.publisher != nil {
		d.publisher.Close()
		d.publisher = nil
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			errs = append(errs, err)
		}
		d.db = nil
	}
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func (d *Dashboard) track(v any) {
	if c, ok := v.(io.Closer); ok {
		d.closers = append(d.closers, c)
	}
}

func (d *Dashboard) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	d.metricsSrv = &http.Server{
		Addr:              d.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go d.serve(d.metricsSrv, "metrics_server_exited")
}

func (d *Dashboard) startRetry() {
	ctx, cancel := context.WithCancel(context.Background())
	d.stopRetry = cancel
	d.retryDone = make(chan struct{})

	go func() {
		defer close(d.retryDone)
		ticker := time.NewTicker(d.cfg.Outbox.RetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := d.pipeline.Redeliver(ctx); err != nil && ctx.Err() == nil {
					d.obs.LogError("outbox_redeliver_failed", err)
				}
			}
		}
	}()
}

func (d *Dashboard) serve(srv *http.Server, msg string) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.obs.LogError(msg, err, ports.Field{Key: "addr", Value: srv.Addr})
	}
}
