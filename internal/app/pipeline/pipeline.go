package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/InfraBoard/internal/app/aggregate"
	"github.com/ghalamif/InfraBoard/internal/app/evaluate"
	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// Deps are the collaborators of a Pipeline. Evaluation, Sink, Sinks, Outbox
// and Publisher are optional.
//
// Sink is the durable store: a rejected write is spooled to Outbox and
// redelivered later. Sinks receive each report once and their failures are
// only logged, so redelivery never writes to them again.
type Deps struct {
	Loader          ports.Loader
	Evaluation      ports.EvaluationLoader
	Forecasters     []ports.Forecaster
	Policy          ports.Policy
	ResourceMetrics []string
	Evaluate        evaluate.Config
	Observability   ports.Observability
	Sink            ports.ReportSink
	Sinks           []ports.ReportSink
	Outbox          ports.Outbox
	Publisher       ports.Publisher
	// RedeliverTimeout bounds each sink write made by Redeliver.
	RedeliverTimeout time.Duration
	Now              func() time.Time
}

const (
	defaultRedeliverTimeout = 10 * time.Second
	// redeliverBatch caps how many spooled reports one Redeliver call reads.
	redeliverBatch = 64
)

var errBatchFull = errors.New("redeliver batch full")

// Pipeline turns the infrastructure dataset into a Report. Each Run is an
// independent pass; the only state kept between passes is an optional
// preloaded table, which is never mutated.
type Pipeline struct {
	deps Deps
	obs  ports.Observability

	mu     sync.RWMutex
	cached *domain.Table
}

func New(d Deps) (*Pipeline, error) {
	if d.Loader == nil {
		return nil, errors.New("loader is required")
	}
	if d.Observability == nil {
		return nil, errors.New("observability is required")
	}
	if d.Policy.SmoothingWindow <= 0 {
		d.Policy.SmoothingWindow = aggregate.DefaultWindow
	}
	if d.Policy.Horizon <= 0 {
		d.Policy.Horizon = 30
	}
	if len(d.ResourceMetrics) == 0 {
		d.ResourceMetrics = []string{domain.MetricCPU, domain.MetricMemory, domain.MetricNetwork}
	}
	if d.RedeliverTimeout <= 0 {
		d.RedeliverTimeout = defaultRedeliverTimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Evaluate.ApplyDefaults()
	return &Pipeline{deps: d, obs: d.Observability}, nil
}

// Preload reads the dataset once; later runs reuse it until Invalidate.
func (p *Pipeline) Preload(ctx context.Context) error {
	t, err := p.load(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.cached = t
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

// Run executes one pass. Only an invalid filter or a failure to load the
// primary dataset is returned as an error; every other shortfall is listed in
// Report.Skipped.
func (p *Pipeline) Run(ctx context.Context, f domain.Filter) (*domain.Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	table, err := p.table(ctx)
	if err != nil {
		p.obs.IncCounter(ports.MetricRenderFailures, 1)
		p.obs.LogCritical("dataset_load_failed", err, ports.Field{Key: "source", Value: p.deps.Loader.Name()})
		return nil, err
	}

	rep := &domain.Report{
		ID:          uuid.NewString(),
		GeneratedAt: p.deps.Now().UTC(),
		Filter:      f,
	}

	var filtered *domain.Table
	p.timed("filter", func() {
		filtered = ApplyFilter(table, f)
	})
	rep.Rows = filtered.Len()

	p.timed("aggregate", func() {
		p.aggregate(rep, filtered)
	})
	p.timed("forecast", func() {
		p.forecast(rep, filtered)
	})
	if p.deps.Evaluation != nil {
		p.timed("evaluate", func() {
			p.evaluate(ctx, rep)
		})
	}

	if err := ctx.Err(); err != nil {
		p.obs.IncCounter(ports.MetricRenderFailures, 1)
		return nil, err
	}

	p.deliver(ctx, rep)
	p.obs.IncCounter(ports.MetricRenders, 1)
	p.obs.LogInfo("report_rendered",
		ports.Field{Key: "report_id", Value: rep.ID},
		ports.Field{Key: "rows", Value: rep.Rows},
		ports.Field{Key: "skipped", Value: len(rep.Skipped)})
	return rep, nil
}

func (p *Pipeline) table(ctx context.Context) (*domain.Table, error) {
	p.mu.RLock()
	t := p.cached
	p.mu.RUnlock()
	if t != nil {
		return t, nil
	}
	return p.load(ctx)
}

func (p *Pipeline) load(ctx context.Context) (*domain.Table, error) {
	start := time.Now()
	t, err := p.deps.Loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%s returned no table: %w", p.deps.Loader.Name(), domain.ErrDatasetNotFound)
	}
	p.obs.ObserveLatency("load", time.Since(start).Seconds())
	p.obs.SetGauge(ports.MetricRowsLoaded, float64(t.Len()))
	p.obs.SetGauge(ports.MetricRowsDropped, float64(t.Dropped))
	if t.Dropped > 0 {
		p.obs.LogInfo("rows_dropped",
			ports.Field{Key: "source", Value: p.deps.Loader.Name()},
			ports.Field{Key: "rows", Value: t.Dropped})
	}
	return t, nil
}

func (p *Pipeline) aggregate(rep *domain.Report, t *domain.Table) {
	rep.StatusCounts = aggregate.CountByStatus(t.Observations)
	statuses := p.deps.Policy.KPIStatuses
	if len(statuses) == 0 {
		for s := range rep.StatusCounts {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
	}
	rep.KPIs = aggregate.KPIs(rep.StatusCounts, statuses)
	rep.Daily = aggregate.DailyCounts(t.Observations, p.deps.Policy.SmoothingWindow)

	avgs, missing, err := aggregate.ResourceAverages(t, p.deps.ResourceMetrics)
	for _, m := range missing {
		p.skip(rep, "aggregate", "resource_averages: missing column "+m)
	}
	if err != nil {
		return
	}
	rep.ResourceAverages = avgs
}

func (p *Pipeline) forecast(rep *domain.Report, t *domain.Table) {
	in := ports.ForecastInput{Daily: rep.Daily, Table: t}
	for _, fc := range p.deps.Forecasters {
		name := fc.Name()
		if req, ok := fc.(ports.MetricRequirer); ok {
			if m, missing := firstMissing(t, req.RequiredMetrics()); missing {
				p.skip(rep, "forecast", "forecast/"+name+": missing column "+m)
				continue
			}
		}

		pts, err := fc.Forecast(in, p.deps.Policy.Horizon)
		if err != nil {
			p.obs.LogError("forecast_failed", err, ports.Field{Key: "strategy", Value: name})
			p.skip(rep, "forecast", "forecast/"+name+": "+err.Error())
			continue
		}
		if len(pts) == 0 {
			p.skip(rep, "forecast", "forecast/"+name+": insufficient data")
			continue
		}
		for _, s := range unforecastStatuses(rep.Daily, pts) {
			p.skip(rep, "forecast", "forecast/"+name+": status "+s+" has fewer than 2 points")
		}
		if rep.Forecasts == nil {
			rep.Forecasts = make(map[string][]domain.ForecastPoint)
		}
		rep.Forecasts[name] = pts
	}
}

func (p *Pipeline) evaluate(ctx context.Context, rep *domain.Report) {
	t, err := p.deps.Evaluation.LoadEvaluation(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrDatasetNotFound) {
			p.skip(rep, "evaluate", "evaluation: dataset not found")
		} else {
			p.obs.LogError("evaluation_load_failed", err, ports.Field{Key: "source", Value: p.deps.Evaluation.Name()})
			p.skip(rep, "evaluate", "evaluation: "+err.Error())
		}
		return
	}

	ev, skipped := evaluate.Evaluate(t, p.deps.Evaluate)
	for _, reason := range skipped {
		p.skip(rep, "evaluate", reason)
	}
	rep.Evaluation = ev
}

// deliver hands the report to the sinks and publisher. Failures are logged
// and never fail the pass; only a rejected durable sink write is spooled.
func (p *Pipeline) deliver(ctx context.Context, rep *domain.Report) {
	if p.deps.Sink != nil && !p.write(ctx, p.deps.Sink, rep) {
		p.spool(rep)
	}
	for _, s := range p.deps.Sinks {
		p.write(ctx, s, rep)
	}
	if p.deps.Publisher != nil {
		if err := p.deps.Publisher.PublishReport(rep); err != nil {
			p.obs.LogError("report_publish_failed", err)
		} else {
			p.obs.IncCounter(ports.MetricPublished, 1)
		}
	}
}

func (p *Pipeline) write(ctx context.Context, s ports.ReportSink, rep *domain.Report) bool {
	start := time.Now()
	if err := s.WriteReport(ctx, rep); err != nil {
		p.obs.LogError("report_sink_failed", err, ports.Field{Key: "sink", Value: s.Name()})
		return false
	}
	p.obs.ObserveLatency("sink", time.Since(start).Seconds())
	p.obs.IncCounter(ports.MetricPublished, 1)
	return true
}

func (p *Pipeline) spool(rep *domain.Report) {
	if p.deps.Outbox == nil {
		return
	}
	id, err := p.deps.Outbox.Append(rep)
	if err != nil {
		p.obs.LogCritical("report_spool_failed", err, ports.Field{Key: "report_id", Value: rep.ID})
		return
	}
	p.obs.LogInfo("report_spooled",
		ports.Field{Key: "report_id", Value: rep.ID},
		ports.Field{Key: "entry", Value: uint64(id)})
	p.obs.SetGauge(ports.MetricOutboxPending, float64(p.deps.Outbox.Stats().Pending()))
}

type spooledReport struct {
	id  ports.OutboxEntryID
	rep *domain.Report
}

// Redeliver writes spooled reports to the durable sink in order, stopping at
// the first failure. Delivered entries are committed and compacted away. It
// returns how many reports were delivered.
//
// Entries are read out of the outbox before any write, so a slow sink never
// blocks Append from a concurrent pass.
func (p *Pipeline) Redeliver(ctx context.Context) (int, error) {
	if p.deps.Outbox == nil || p.deps.Sink == nil {
		return 0, nil
	}
	stats := p.deps.Outbox.Stats()
	if stats.Pending() == 0 {
		return 0, nil
	}

	var batch []spooledReport
	err := p.deps.Outbox.Iterate(stats.OldestUncommitted, func(id ports.OutboxEntryID, rep *domain.Report) error {
		batch = append(batch, spooledReport{id: id, rep: rep})
		if len(batch) == redeliverBatch {
			return errBatchFull
		}
		return nil
	})
	if err != nil && !errors.Is(err, errBatchFull) {
		return 0, fmt.Errorf("read outbox: %w", err)
	}

	var (
		delivered int
		last      ports.OutboxEntryID
		writeErr  error
	)
	for _, e := range batch {
		if writeErr = ctx.Err(); writeErr != nil {
			break
		}
		wctx, cancel := context.WithTimeout(ctx, p.deps.RedeliverTimeout)
		writeErr = p.deps.Sink.WriteReport(wctx, e.rep)
		cancel()
		if writeErr != nil {
			writeErr = fmt.Errorf("redeliver %s: %w", e.rep.ID, writeErr)
			break
		}
		p.obs.IncCounter(ports.MetricPublished, 1)
		delivered++
		last = e.id
	}

	if last > 0 {
		if err := p.deps.Outbox.Commit(last); err != nil {
			return delivered, err
		}
		if err := p.deps.Outbox.Compact(); err != nil {
			p.obs.LogError("outbox_compact_failed", err)
		}
	}
	p.obs.SetGauge(ports.MetricOutboxPending, float64(p.deps.Outbox.Stats().Pending()))
	if delivered > 0 {
		p.obs.LogInfo("reports_redelivered", ports.Field{Key: "count", Value: delivered})
	}
	return delivered, writeErr
}

func (p *Pipeline) skip(rep *domain.Report, stage, reason string) {
	rep.Skipped = append(rep.Skipped, reason)
	p.obs.RecordSkip(stage, reason)
}

func (p *Pipeline) timed(stage string, fn func()) {
	start := time.Now()
	fn()
	p.obs.ObserveLatency(stage, time.Since(start).Seconds())
}

func firstMissing(t *domain.Table, metrics []string) (string, bool) {
	for _, m := range metrics {
		if !t.HasMetric(m) {
			return m, true
		}
	}
	return "", false
}

// unforecastStatuses lists statuses present in daily that a per-status
// strategy produced no points for. Strategies forecasting anything other than
// the smoothed status counts are not per-status and yield nothing.
func unforecastStatuses(daily []domain.DailyStatusCount, pts []domain.ForecastPoint) []string {
	covered := make(map[string]bool)
	for _, pt := range pts {
		if pt.Metric != domain.MetricSmoothedCount {
			return nil
		}
		covered[pt.Status] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range daily {
		if !covered[d.Status] && !seen[d.Status] {
			seen[d.Status] = true
			out = append(out, d.Status)
		}
	}
	sort.Strings(out)
	return out
}
