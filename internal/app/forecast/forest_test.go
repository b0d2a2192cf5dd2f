package forecast

import (
	"math"
	"testing"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

func forestTable(withTemperature bool) *domain.Table {
	metrics := []string{domain.MetricCPU, domain.MetricNetwork}
	if withTemperature {
		metrics = append(metrics, domain.MetricTemperature)
	}
	t := &domain.Table{Metrics: metrics}
	for i := 0; i < 20; i++ {
		m := map[string]float64{
			domain.MetricCPU:     float64(10 + i*4),
			domain.MetricNetwork: float64(100 + i),
		}
		if withTemperature {
			m[domain.MetricTemperature] = 30 + float64(i)
		}
		t.Observations = append(t.Observations, domain.Observation{Date: day(1 + i%5), Status: "Normal", Metrics: m})
	}
	return t
}

func TestForestSkipsWithoutTargetColumn(t *testing.T) {
	points, err := NewForest(ForestConfig{}).Forecast(ports.ForecastInput{Table: forestTable(false)}, 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points without temperature column, got %d", len(points))
	}
}

func TestForestDropsIncompleteRows(t *testing.T) {
	table := &domain.Table{
		Metrics: []string{domain.MetricCPU, domain.MetricNetwork, domain.MetricTemperature},
		Observations: []domain.Observation{
			{Date: day(1), Metrics: map[string]float64{domain.MetricCPU: 1, domain.MetricNetwork: 1, domain.MetricTemperature: 40}},
			{Date: day(2), Metrics: map[string]float64{domain.MetricCPU: 2, domain.MetricTemperature: 90}},
			{Date: day(3), Metrics: map[string]float64{domain.MetricCPU: 3, domain.MetricNetwork: 3}},
		},
	}

	xs, ys := NewForest(ForestConfig{}).trainingSet(table)
	if len(xs) != 1 || len(ys) != 1 || ys[0] != 40 {
		t.Fatalf("expected a single complete row, got xs=%v ys=%v", xs, ys)
	}

	points, err := NewForest(ForestConfig{}).Forecast(ports.ForecastInput{Table: table}, 2)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected skip with fewer than 2 complete rows, got %+v", points)
	}
}

func TestForestForecastsHorizonPastLastDate(t *testing.T) {
	table := forestTable(true)
	points, err := NewForest(ForestConfig{Trees: 20}).Forecast(ports.ForecastInput{Table: table}, 4)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	for k, p := range points {
		if !p.Date.Equal(day(6 + k)) {
			t.Fatalf("point %d: expected %s, got %s", k, day(6+k), p.Date)
		}
		if p.Metric != domain.MetricTemperature || p.Strategy != ForestName {
			t.Fatalf("unexpected labels: %+v", p)
		}
		if p.Value < 30 || p.Value > 49 {
			t.Fatalf("prediction %f outside observed target range", p.Value)
		}
	}
	if points[0].Value >= points[3].Value {
		t.Fatalf("expected rising predictions along the grid, got %f then %f", points[0].Value, points[3].Value)
	}
}

func TestForestIsDeterministicForSeed(t *testing.T) {
	table := forestTable(true)
	a, _ := NewForest(ForestConfig{Trees: 10, Seed: 7}).Forecast(ports.ForecastInput{Table: table}, 3)
	b, _ := NewForest(ForestConfig{Trees: 10, Seed: 7}).Forecast(ports.ForecastInput{Table: table}, 3)
	for i := range a {
		if a[i].Value != b[i].Value {
			t.Fatalf("point %d differs between runs: %f vs %f", i, a[i].Value, b[i].Value)
		}
	}
}

func TestForestConstantTargetPredictsConstant(t *testing.T) {
	table := forestTable(true)
	for i := range table.Observations {
		table.Observations[i].Metrics[domain.MetricTemperature] = 55
	}
	points, err := NewForest(ForestConfig{Trees: 5}).Forecast(ports.ForecastInput{Table: table}, 2)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for _, p := range points {
		if math.Abs(p.Value-55) > 1e-9 {
			t.Fatalf("expected constant prediction 55, got %f", p.Value)
		}
	}
}

func TestSyntheticGridInterpolatesMinToMax(t *testing.T) {
	xs := [][]float64{{10, 5}, {30, 1}, {20, 3}}
	grid := syntheticGrid(xs, 2, 3)
	want := [][]float64{{10, 1}, {20, 3}, {30, 5}}
	for k := range want {
		for f := range want[k] {
			if math.Abs(grid[k][f]-want[k][f]) > 1e-9 {
				t.Fatalf("grid[%d][%d]=%f want %f", k, f, grid[k][f], want[k][f])
			}
		}
	}

	single := syntheticGrid(xs, 2, 1)
	if single[0][0] != 10 || single[0][1] != 1 {
		t.Fatalf("expected single-step grid at minimums, got %v", single)
	}
}
