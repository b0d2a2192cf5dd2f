package domain

import (
	"fmt"
	"time"
)

// Logical column names shared by sources and stages.
const (
	ColumnDate      = "date"
	ColumnStatus    = "status"
	ColumnActual    = "actual"
	ColumnPredicted = "predicted"
	ColumnScore     = "score"

	MetricCPU         = "cpu"
	MetricMemory      = "memory"
	MetricNetwork     = "network"
	MetricLatency     = "latency"
	MetricTemperature = "temperature"
	MetricPrecision   = "precision"
	MetricEfficiency  = "efficiency"

	// MetricSmoothedCount tags forecast points that extend a smoothed status series.
	MetricSmoothedCount = "smoothed_count"
)

// StatusCounts maps a status label to its observation count.
type StatusCounts map[string]int

// Get returns zero for statuses that never appeared.
func (c StatusCounts) Get(status string) int {
	return c[status]
}

func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

type DailyStatusCount struct {
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Count    int       `json:"count"`
	Smoothed float64   `json:"smoothed"`
}

type StatusResourceAverage struct {
	Status  string             `json:"status"`
	Samples int                `json:"samples"`
	Means   map[string]float64 `json:"means"`
}

type ForecastPoint struct {
	Date     time.Time `json:"date"`
	Status   string    `json:"status,omitempty"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Strategy string    `json:"strategy"`
}

// KPI is a single counter tile.
type KPI struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Report is the output of one pipeline pass. Nil sections were skipped; the
// reason is listed in Skipped.
type Report struct {
	ID               string                     `json:"id"`
	GeneratedAt      time.Time                  `json:"generated_at"`
	Filter           Filter                     `json:"filter"`
	Rows             int                        `json:"rows"`
	StatusCounts     StatusCounts               `json:"status_counts"`
	KPIs             []KPI                      `json:"kpis"`
	Daily            []DailyStatusCount         `json:"daily"`
	ResourceAverages []StatusResourceAverage    `json:"resource_averages,omitempty"`
	Forecasts        map[string][]ForecastPoint `json:"forecasts,omitempty"`
	Evaluation       *Evaluation                `json:"evaluation,omitempty"`
	Skipped          []string                   `json:"skipped,omitempty"`
}

// Filter narrows the observation set before aggregation. Zero values disable
// the corresponding predicate.
type Filter struct {
	Statuses []string   `json:"statuses,omitempty"`
	Status   string     `json:"status,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Metric   string     `json:"metric,omitempty"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
}

// Validate rejects an inverted date or value range and a value range with no
// metric to apply it to.
func (f Filter) Validate() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("from %s is after to %s: %w", f.From.Format("2006-01-02"), f.To.Format("2006-01-02"), ErrInvalidFilter)
	}
	if (f.Min != nil || f.Max != nil) && f.Metric == "" {
		return fmt.Errorf("min/max require metric: %w", ErrInvalidFilter)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("min %v is greater than max %v: %w", *f.Min, *f.Max, ErrInvalidFilter)
	}
	return nil
}
