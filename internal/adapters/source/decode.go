package source

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return domain.Day(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseNumber treats blanks and NaN as missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// metricIndex resolves the logical metrics whose header is present.
func metricIndex(idx map[string]int, metrics map[string]string) (map[string]int, []string) {
	out := make(map[string]int, len(metrics))
	for name, header := range metrics {
		if i, ok := idx[strings.TrimSpace(header)]; ok {
			out[name] = i
		}
	}
	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)
	return out, names
}

type observationDecoder struct {
	date, status int
	metrics      map[string]int
	names        []string
}

func newObservationDecoder(header []string, cols Columns) (*observationDecoder, error) {
	idx := headerIndex(header)
	date, ok := idx[strings.TrimSpace(cols.Date)]
	if !ok {
		return nil, fmt.Errorf("date column %q: %w", cols.Date, domain.ErrMissingColumn)
	}
	status, ok := idx[strings.TrimSpace(cols.Status)]
	if !ok {
		return nil, fmt.Errorf("status column %q: %w", cols.Status, domain.ErrMissingColumn)
	}
	metrics, names := metricIndex(idx, cols.Metrics)
	return &observationDecoder{date: date, status: status, metrics: metrics, names: names}, nil
}

// decode rejects rows whose date does not parse or whose status is blank.
func (d *observationDecoder) decode(rec []string) (domain.Observation, bool) {
	date, err := parseDate(cell(rec, d.date))
	if err != nil {
		return domain.Observation{}, false
	}
	status := cell(rec, d.status)
	if status == "" {
		return domain.Observation{}, false
	}
	o := domain.Observation{
		Date:    date,
		Status:  status,
		Metrics: make(map[string]float64, len(d.metrics)),
	}
	for name, i := range d.metrics {
		if v, ok := parseNumber(cell(rec, i)); ok {
			o.Metrics[name] = v
		}
	}
	return o, true
}

type evaluationDecoder struct {
	actual, predicted, score, status int
	metrics                          map[string]int
	columns                          []string
}

func newEvaluationDecoder(header []string, cols EvaluationColumns) *evaluationDecoder {
	idx := headerIndex(header)
	lookup := func(name string) int {
		if i, ok := idx[strings.TrimSpace(name)]; ok && name != "" {
			return i
		}
		return -1
	}
	d := &evaluationDecoder{
		actual:    lookup(cols.Actual),
		predicted: lookup(cols.Predicted),
		score:     lookup(cols.Score),
		status:    lookup(cols.Status),
	}
	var names []string
	d.metrics, names = metricIndex(idx, cols.Metrics)

	for col, i := range map[string]int{
		domain.ColumnActual:    d.actual,
		domain.ColumnPredicted: d.predicted,
		domain.ColumnScore:     d.score,
		domain.ColumnStatus:    d.status,
	} {
		if i >= 0 {
			d.columns = append(d.columns, col)
		}
	}
	d.columns = append(d.columns, names...)
	sort.Strings(d.columns)
	return d
}

func (d *evaluationDecoder) decode(rec []string) domain.EvaluationRecord {
	r := domain.EvaluationRecord{
		Actual:    cell(rec, d.actual),
		Predicted: cell(rec, d.predicted),
		Status:    cell(rec, d.status),
		Metrics:   make(map[string]float64, len(d.metrics)),
	}
	if v, ok := parseNumber(cell(rec, d.score)); ok {
		r.Score = &v
	}
	for name, i := range d.metrics {
		if v, ok := parseNumber(cell(rec, i)); ok {
			r.Metrics[name] = v
		}
	}
	return r
}
