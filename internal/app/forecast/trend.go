package forecast

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

const LinearTrendName = "linear_trend"

// LinearTrend fits an ordinary least squares line per status against the
// ordinal position of each smoothed point and extends it one day per step.
// Date gaps do not stretch the trend: the predictor is the index, not the
// elapsed day count.
type LinearTrend struct{}

func NewLinearTrend() *LinearTrend { return &LinearTrend{} }

func (l *LinearTrend) Name() string { return LinearTrendName }

func (l *LinearTrend) Forecast(in ports.ForecastInput, horizon int) ([]domain.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, nil
	}

	type point struct {
		date  time.Time
		value float64
	}
	series := make(map[string][]point)
	for _, d := range in.Daily {
		if math.IsNaN(d.Smoothed) || math.IsInf(d.Smoothed, 0) {
			continue
		}
		series[d.Status] = append(series[d.Status], point{date: d.Date, value: d.Smoothed})
	}

	statuses := make([]string, 0, len(series))
	for s := range series {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	var out []domain.ForecastPoint
	for _, status := range statuses {
		pts := series[status]
		if len(pts) < 2 {
			continue
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].date.Before(pts[j].date) })

		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = float64(i)
			ys[i] = p.value
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)

		last := pts[len(pts)-1].date
		n := len(pts)
		for k := 1; k <= horizon; k++ {
			idx := float64(n - 1 + k)
			out = append(out, domain.ForecastPoint{
				Date:     last.Add(time.Duration(k) * ports.Period),
				Status:   status,
				Metric:   domain.MetricSmoothedCount,
				Value:    alpha + beta*idx,
				Strategy: LinearTrendName,
			})
		}
	}
	return out, nil
}

var _ ports.Forecaster = (*LinearTrend)(nil)
