package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// DefaultWindow is the trailing window of the smoothed daily series.
const DefaultWindow = 7

// CountByStatus counts observations per status label.
func CountByStatus(obs []domain.Observation) domain.StatusCounts {
	counts := make(domain.StatusCounts)
	for _, o := range obs {
		counts[o.Status]++
	}
	return counts
}

// KPIs reads the counters for the requested statuses in order. Statuses with
// no rows read zero.
func KPIs(counts domain.StatusCounts, statuses []string) []domain.KPI {
	out := make([]domain.KPI, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, domain.KPI{Status: s, Count: counts.Get(s)})
	}
	return out
}

type dayKey struct {
	date   time.Time
	status string
}

// DailyCounts groups observations by (date, status) and smooths each status's
// date-ordered counts with a trailing mean over window observed periods. The
// result is ordered by status, then date.
func DailyCounts(obs []domain.Observation, window int) []domain.DailyStatusCount {
	if window <= 0 {
		window = DefaultWindow
	}

	grouped := make(map[dayKey]int)
	for _, o := range obs {
		grouped[dayKey{date: domain.Day(o.Date), status: o.Status}]++
	}

	out := make([]domain.DailyStatusCount, 0, len(grouped))
	for k, n := range grouped {
		out = append(out, domain.DailyStatusCount{Date: k.date, Status: k.status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Date.Before(out[j].Date)
	})

	for start := 0; start < len(out); {
		end := start
		for end < len(out) && out[end].Status == out[start].Status {
			end++
		}
		counts := make([]float64, end-start)
		for i := range counts {
			counts[i] = float64(out[start+i].Count)
		}
		for i, v := range Smooth(counts, window) {
			out[start+i].Smoothed = v
		}
		start = end
	}
	return out
}

// Smooth is a trailing moving average that never leaves a gap: positions with
// fewer than window predecessors average over what is available.
func Smooth(values []float64, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// ResourceAverages computes per-status means of metrics over the given table.
// Metrics without a column in the table are reported in missing; when none
// of them exist the whole output is skipped with ErrMissingColumn.
func ResourceAverages(t *domain.Table, metrics []string) (avgs []domain.StatusResourceAverage, missing []string, err error) {
	present := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if t.HasMetric(m) {
			present = append(present, m)
		} else {
			missing = append(missing, m)
		}
	}
	if len(present) == 0 {
		return nil, missing, fmt.Errorf("resource averages need one of [%s]: %w", strings.Join(metrics, ", "), domain.ErrMissingColumn)
	}

	type bucket struct {
		samples int
		values  map[string][]float64
	}
	byStatus := make(map[string]*bucket)
	for _, o := range t.Observations {
		b, ok := byStatus[o.Status]
		if !ok {
			b = &bucket{values: make(map[string][]float64, len(present))}
			byStatus[o.Status] = b
		}
		b.samples++
		for _, m := range present {
			if v, ok := o.Metric(m); ok {
				b.values[m] = append(b.values[m], v)
			}
		}
	}

	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	avgs = make([]domain.StatusResourceAverage, 0, len(statuses))
	for _, s := range statuses {
		b := byStatus[s]
		means := make(map[string]float64, len(present))
		for _, m := range present {
			if vals := b.values[m]; len(vals) > 0 {
				means[m] = stat.Mean(vals, nil)
			}
		}
		avgs = append(avgs, domain.StatusResourceAverage{Status: s, Samples: b.samples, Means: means})
	}
	return avgs, missing, nil
}
