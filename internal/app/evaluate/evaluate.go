package evaluate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

type Config struct {
	PositiveLabel string `yaml:"positive_label"`
	Bins          int    `yaml:"bins"`
}

func (c *Config) ApplyDefaults() {
	if c.PositiveLabel == "" {
		c.PositiveLabel = "Crítico"
	}
	if c.Bins == 0 {
		c.Bins = 10
	}
}

// Evaluate computes every output the table has columns for. Outputs that
// cannot be computed are left nil and their reason is returned in skipped.
func Evaluate(t *domain.EvaluationTable, cfg Config) (ev *domain.Evaluation, skipped []string) {
	cfg.ApplyDefaults()
	if t == nil {
		return nil, nil
	}
	ev = &domain.Evaluation{Records: len(t.Records)}

	if t.HasColumn(domain.ColumnActual) && t.HasColumn(domain.ColumnPredicted) {
		ev.Confusion = Confusion(t.Records)
		roc, err := ROC(t.Records, cfg.PositiveLabel, t.HasColumn(domain.ColumnScore))
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("roc: %v", err))
		} else {
			ev.ROC = roc
		}
	} else {
		skipped = append(skipped, "confusion: missing label columns", "roc: missing label columns")
	}

	if t.HasColumn(domain.MetricPrecision) {
		ev.Precision = Histogram(metricValues(t.Records, domain.MetricPrecision), domain.MetricPrecision, cfg.Bins)
	} else {
		skipped = append(skipped, "precision_histogram: missing column")
	}

	if t.HasColumn(domain.MetricEfficiency) {
		ev.Efficiency = Box(metricValues(t.Records, domain.MetricEfficiency), domain.MetricEfficiency)
	} else {
		skipped = append(skipped, "efficiency_box: missing column")
	}

	if t.HasColumn(domain.MetricCPU) && t.HasColumn(domain.MetricTemperature) {
		ev.Scatter = Scatter(t.Records, domain.MetricCPU, domain.MetricTemperature)
	} else {
		skipped = append(skipped, "cpu_temperature_scatter: missing column")
	}
	return ev, skipped
}

// Confusion counts Matrix[actual][predicted] over the sorted union of labels.
func Confusion(records []domain.EvaluationRecord) *domain.ConfusionMatrix {
	set := make(map[string]struct{})
	for _, r := range records {
		set[r.Actual] = struct{}{}
		set[r.Predicted] = struct{}{}
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	matrix := make([][]int, len(labels))
	for i := range matrix {
		matrix[i] = make([]int, len(labels))
	}

	var correct int
	for _, r := range records {
		matrix[index[r.Actual]][index[r.Predicted]]++
		if r.Actual == r.Predicted {
			correct++
		}
	}

	cm := &domain.ConfusionMatrix{Labels: labels, Matrix: matrix}
	if len(records) > 0 {
		cm.Accuracy = float64(correct) / float64(len(records))
	}
	return cm
}

// ROC treats positive as the positive class. Without a score column the
// predicted label is the score: 1 when it names the positive class, else 0.
func ROC(records []domain.EvaluationRecord, positive string, useScore bool) (*domain.ROCCurve, error) {
	y := make([]float64, 0, len(records))
	classes := make([]bool, 0, len(records))
	var pos, neg int
	for _, r := range records {
		var score float64
		switch {
		case useScore && r.Score != nil:
			score = *r.Score
		case useScore:
			continue
		case r.Predicted == positive:
			score = 1
		}
		y = append(y, score)
		isPos := r.Actual == positive
		classes = append(classes, isPos)
		if isPos {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, fmt.Errorf("need both classes of %q: %w", positive, domain.ErrInsufficientData)
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)

	ceiling := floats.Max(y) + 1
	for i, th := range thresh {
		if math.IsInf(th, 0) {
			thresh[i] = ceiling
		}
	}

	return &domain.ROCCurve{
		PositiveLabel: positive,
		FPR:           fpr,
		TPR:           tpr,
		Thresholds:    thresh,
		AUC:           integrate.Trapezoidal(fpr, tpr),
	}, nil
}

// Histogram bins values into equal-width bins spanning [min, max].
func Histogram(values []float64, metric string, bins int) *domain.Histogram {
	if len(values) == 0 {
		return &domain.Histogram{Metric: metric}
	}
	if bins < 1 {
		bins = 1
	}
	x := append([]float64(nil), values...)
	sort.Float64s(x)
	lo, hi := x[0], x[len(x)-1]

	var dividers []float64
	if lo == hi {
		dividers = []float64{lo, math.Nextafter(hi, math.Inf(1))}
	} else {
		dividers = floats.Span(make([]float64, bins+1), lo, hi)
		dividers[bins] = math.Nextafter(hi, math.Inf(1))
	}
	return &domain.Histogram{
		Metric:   metric,
		Dividers: dividers,
		Counts:   stat.Histogram(nil, dividers, x, nil),
	}
}

// Box computes quartiles with linear interpolation and Tukey whiskers.
func Box(values []float64, metric string) *domain.BoxStats {
	if len(values) == 0 {
		return &domain.BoxStats{Metric: metric}
	}
	x := append([]float64(nil), values...)
	sort.Float64s(x)

	b := &domain.BoxStats{
		Metric: metric,
		Min:    x[0],
		Q1:     stat.Quantile(0.25, stat.LinInterp, x, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, x, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, x, nil),
		Max:    x[len(x)-1],
	}
	iqr := b.Q3 - b.Q1
	lowFence, highFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Max, b.Min
	for _, v := range x {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.LowerWhisker = math.Min(b.LowerWhisker, v)
		b.UpperWhisker = math.Max(b.UpperWhisker, v)
	}
	return b
}

// Scatter pairs two metrics per record, grouped by status.
func Scatter(records []domain.EvaluationRecord, xMetric, yMetric string) []domain.ScatterSeries {
	byStatus := make(map[string][]domain.ScatterPoint)
	for _, r := range records {
		x, okX := r.Metrics[xMetric]
		y, okY := r.Metrics[yMetric]
		if !okX || !okY {
			continue
		}
		byStatus[r.Status] = append(byStatus[r.Status], domain.ScatterPoint{X: x, Y: y})
	}
	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	out := make([]domain.ScatterSeries, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, domain.ScatterSeries{Status: s, Points: byStatus[s]})
	}
	return out
}

func metricValues(records []domain.EvaluationRecord, metric string) []float64 {
	var out []float64
	for _, r := range records {
		if v, ok := r.Metrics[metric]; ok && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
