package aggregate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func obs(d int, status string, metrics map[string]float64) domain.Observation {
	return domain.Observation{Date: day(d), Status: status, Metrics: metrics}
}

func TestCountByStatusAbsentStatusReadsZero(t *testing.T) {
	counts := CountByStatus([]domain.Observation{
		obs(1, "Critical", nil),
		obs(2, "Critical", nil),
		obs(3, "Warning", nil),
	})

	if counts.Get("Critical") != 2 || counts.Get("Warning") != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if counts.Get("Inactive") != 0 {
		t.Fatalf("expected absent status to read 0, got %d", counts.Get("Inactive"))
	}

	kpis := KPIs(counts, []string{"Critical", "Inactive"})
	if len(kpis) != 2 || kpis[0].Count != 2 || kpis[1].Count != 0 {
		t.Fatalf("unexpected kpis: %+v", kpis)
	}
}

func TestDailyCountsSumMatchesStatusTotals(t *testing.T) {
	rows := []domain.Observation{
		obs(1, "Critical", nil), obs(1, "Critical", nil), obs(1, "Normal", nil),
		obs(2, "Critical", nil), obs(3, "Normal", nil), obs(3, "Normal", nil),
		obs(5, "Warning", nil), obs(5, "Critical", nil),
	}
	counts := CountByStatus(rows)
	daily := DailyCounts(rows, DefaultWindow)

	sums := make(map[string]int)
	seen := make(map[dayKey]bool)
	for _, d := range daily {
		k := dayKey{date: d.Date, status: d.Status}
		if seen[k] {
			t.Fatalf("duplicate (date, status) row: %+v", d)
		}
		seen[k] = true
		sums[d.Status] += d.Count
	}
	for status, total := range counts {
		if sums[status] != total {
			t.Fatalf("status %s: daily sum %d != total %d", status, sums[status], total)
		}
	}
}

func TestDailyCountsIgnoresTimeOfDay(t *testing.T) {
	rows := []domain.Observation{
		{Date: time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC), Status: "Normal"},
		{Date: time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC), Status: "Normal"},
	}
	daily := DailyCounts(rows, DefaultWindow)
	if len(daily) != 1 || daily[0].Count != 2 {
		t.Fatalf("expected one row with count 2, got %+v", daily)
	}
}

func TestSmoothFirstPointEqualsRawCount(t *testing.T) {
	got := Smooth([]float64{4, 8, 6}, 7)
	if got[0] != 4 {
		t.Fatalf("expected first smoothed value 4, got %f", got[0])
	}
	if got[1] != 6 || got[2] != 6 {
		t.Fatalf("unexpected smoothed series: %v", got)
	}
}

func TestSmoothStaysWithinTrailingWindowBounds(t *testing.T) {
	values := []float64{3, 9, 1, 7, 7, 2, 10, 4, 0, 5, 8, 6}
	const window = 7
	got := Smooth(values, window)

	for i, v := range got {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, raw := range values[lo : i+1] {
			minV = math.Min(minV, raw)
			maxV = math.Max(maxV, raw)
		}
		if v < minV || v > maxV {
			t.Fatalf("index %d: smoothed %f outside [%f, %f]", i, v, minV, maxV)
		}
		if math.IsNaN(v) {
			t.Fatalf("index %d: smoothed value undefined", i)
		}
	}

	// Position 7 averages values[1..7].
	want := (9.0 + 1 + 7 + 7 + 2 + 10 + 4) / 7
	if math.Abs(got[7]-want) > 1e-9 {
		t.Fatalf("expected %f at index 7, got %f", want, got[7])
	}
}

func TestResourceAveragesNarrowedToOneStatus(t *testing.T) {
	rows := []domain.Observation{
		obs(1, "Critical", map[string]float64{domain.MetricCPU: 90}),
		obs(1, "Critical", map[string]float64{domain.MetricCPU: 70}),
		obs(2, "Normal", map[string]float64{domain.MetricCPU: 10}),
	}
	table := &domain.Table{Observations: rows, Metrics: []string{domain.MetricCPU}}

	avgs, missing, err := ResourceAverages(table, []string{domain.MetricCPU, domain.MetricMemory})
	if err != nil {
		t.Fatalf("resource averages: %v", err)
	}
	if len(missing) != 1 || missing[0] != domain.MetricMemory {
		t.Fatalf("expected memory to be reported missing, got %v", missing)
	}
	if len(avgs) != 2 || avgs[0].Status != "Critical" || avgs[0].Means[domain.MetricCPU] != 80 {
		t.Fatalf("unexpected averages: %+v", avgs)
	}

	narrowed := &domain.Table{Observations: rows[:2], Metrics: table.Metrics}
	avgs, _, err = ResourceAverages(narrowed, []string{domain.MetricCPU})
	if err != nil {
		t.Fatalf("resource averages: %v", err)
	}
	if len(avgs) != 1 || avgs[0].Means[domain.MetricCPU] != 80 {
		t.Fatalf("expected Critical-only mean 80, got %+v", avgs)
	}
}

func TestResourceAveragesSkipsMissingCells(t *testing.T) {
	rows := []domain.Observation{
		obs(1, "Warning", map[string]float64{domain.MetricCPU: 30}),
		obs(2, "Warning", map[string]float64{}),
	}
	table := &domain.Table{Observations: rows, Metrics: []string{domain.MetricCPU}}

	avgs, _, err := ResourceAverages(table, []string{domain.MetricCPU})
	if err != nil {
		t.Fatalf("resource averages: %v", err)
	}
	if avgs[0].Samples != 2 || avgs[0].Means[domain.MetricCPU] != 30 {
		t.Fatalf("unexpected averages: %+v", avgs[0])
	}
}

func TestResourceAveragesWithoutColumns(t *testing.T) {
	table := &domain.Table{Observations: []domain.Observation{obs(1, "Normal", nil)}}

	avgs, _, err := ResourceAverages(table, []string{domain.MetricCPU})
	if !errors.Is(err, domain.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if avgs != nil {
		t.Fatalf("expected no averages, got %+v", avgs)
	}
}
