package domain

import "time"

// Observation is one row of the infrastructure dataset.
type Observation struct {
	Date    time.Time          `json:"date"`
	Status  string             `json:"status"`
	Metrics map[string]float64 `json:"metrics"`
}

// Metric returns the named metric and whether the cell was present.
func (o Observation) Metric(name string) (float64, bool) {
	v, ok := o.Metrics[name]
	return v, ok
}

// Table is an immutable set of observations plus the logical metric names the
// source carried columns for. Dropped counts rows whose date did not parse or
// whose status was blank.
type Table struct {
	Observations []Observation
	Metrics      []string
	Dropped      int
}

func (t *Table) HasMetric(name string) bool {
	if t == nil {
		return false
	}
	for _, m := range t.Metrics {
		if m == name {
			return true
		}
	}
	return false
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Observations)
}

// LastDate is the latest observation date, zero when the table is empty.
func (t *Table) LastDate() time.Time {
	var last time.Time
	if t == nil {
		return last
	}
	for _, o := range t.Observations {
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return last
}

// EvaluationRecord is one row of the model evaluation dataset.
type EvaluationRecord struct {
	Actual    string             `json:"actual"`
	Predicted string             `json:"predicted"`
	Score     *float64           `json:"score,omitempty"`
	Status    string             `json:"status"`
	Metrics   map[string]float64 `json:"metrics"`
}

// EvaluationTable mirrors Table for the evaluation dataset. Columns records
// which logical columns (labels, score, metrics) were present in the source.
type EvaluationTable struct {
	Records []EvaluationRecord
	Columns []string
}

func (t *EvaluationTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Day truncates ts to UTC midnight.
func Day(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
