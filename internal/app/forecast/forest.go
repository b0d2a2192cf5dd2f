package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

const ForestName = "forest"

type ForestConfig struct {
	Target     string   `yaml:"target"`
	Predictors []string `yaml:"predictors"`
	Trees      int      `yaml:"trees"`
	MaxDepth   int      `yaml:"max_depth"`
	MinLeaf    int      `yaml:"min_leaf"`
	Seed       int64    `yaml:"seed"`
}

func (c *ForestConfig) ApplyDefaults() {
	if c.Target == "" {
		c.Target = domain.MetricTemperature
	}
	if len(c.Predictors) == 0 {
		c.Predictors = []string{domain.MetricCPU, domain.MetricNetwork}
	}
	if c.Trees == 0 {
		c.Trees = 100
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 8
	}
	if c.MinLeaf == 0 {
		c.MinLeaf = 2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Forest regresses a target metric on predictor metrics with a bagged tree
// ensemble, then predicts over a grid that walks each predictor linearly from
// its observed minimum to its observed maximum across the horizon.
type Forest struct {
	cfg ForestConfig
}

func NewForest(cfg ForestConfig) *Forest {
	cfg.ApplyDefaults()
	return &Forest{cfg: cfg}
}

func (f *Forest) Name() string { return ForestName }

func (f *Forest) RequiredMetrics() []string {
	return append([]string{f.cfg.Target}, f.cfg.Predictors...)
}

func (f *Forest) Forecast(in ports.ForecastInput, horizon int) ([]domain.ForecastPoint, error) {
	if horizon <= 0 || in.Table == nil {
		return nil, nil
	}
	if !in.Table.HasMetric(f.cfg.Target) {
		return nil, nil
	}
	for _, p := range f.cfg.Predictors {
		if !in.Table.HasMetric(p) {
			return nil, nil
		}
	}

	xs, ys := f.trainingSet(in.Table)
	if len(ys) < 2 {
		return nil, nil
	}

	model := fitForest(xs, ys, f.cfg.Trees, treeParams{maxDepth: f.cfg.MaxDepth, minLeaf: f.cfg.MinLeaf}, f.cfg.Seed)
	grid := syntheticGrid(xs, len(f.cfg.Predictors), horizon)
	last := in.Table.LastDate()

	out := make([]domain.ForecastPoint, 0, horizon)
	for k, row := range grid {
		out = append(out, domain.ForecastPoint{
			Date:     last.Add(time.Duration(k+1) * ports.Period),
			Metric:   f.cfg.Target,
			Value:    model.predict(row),
			Strategy: ForestName,
		})
	}
	return out, nil
}

// trainingSet keeps only rows where every predictor and the target are present.
func (f *Forest) trainingSet(t *domain.Table) ([][]float64, []float64) {
	var (
		xs [][]float64
		ys []float64
	)
	for _, o := range t.Observations {
		y, ok := finiteMetric(o, f.cfg.Target)
		if !ok {
			continue
		}
		row := make([]float64, 0, len(f.cfg.Predictors))
		for _, p := range f.cfg.Predictors {
			v, ok := finiteMetric(o, p)
			if !ok {
				break
			}
			row = append(row, v)
		}
		if len(row) != len(f.cfg.Predictors) {
			continue
		}
		xs = append(xs, row)
		ys = append(ys, y)
	}
	return xs, ys
}

func syntheticGrid(xs [][]float64, features, horizon int) [][]float64 {
	cols := make([][]float64, features)
	for f := 0; f < features; f++ {
		col := make([]float64, len(xs))
		for i, row := range xs {
			col[i] = row[f]
		}
		lo, hi := floats.Min(col), floats.Max(col)
		if horizon == 1 {
			cols[f] = []float64{lo}
			continue
		}
		cols[f] = floats.Span(make([]float64, horizon), lo, hi)
	}

	grid := make([][]float64, horizon)
	for k := range grid {
		grid[k] = make([]float64, features)
		for f := range cols {
			grid[k][f] = cols[f][k]
		}
	}
	return grid
}

func finiteMetric(o domain.Observation, name string) (float64, bool) {
	v, ok := o.Metric(name)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var _ ports.Forecaster = (*Forest)(nil)
