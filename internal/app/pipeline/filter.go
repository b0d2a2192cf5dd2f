package pipeline

import (
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// ApplyFilter returns a new table holding the rows of t that pass f. Rows
// without a status are counted as dropped. The source table is never
// modified.
func ApplyFilter(t *domain.Table, f domain.Filter) *domain.Table {
	out := &domain.Table{
		Metrics: append([]string(nil), t.Metrics...),
		Dropped: t.Dropped,
	}

	var allowed map[string]struct{}
	if len(f.Statuses) > 0 {
		allowed = make(map[string]struct{}, len(f.Statuses))
		for _, s := range f.Statuses {
			allowed[s] = struct{}{}
		}
	}

	var from, to time.Time
	if f.From != nil {
		from = domain.Day(*f.From)
	}
	if f.To != nil {
		to = domain.Day(*f.To)
	}
	ranged := f.Metric != "" && (f.Min != nil || f.Max != nil)

	for _, o := range t.Observations {
		if o.Status == "" {
			out.Dropped++
			continue
		}
		if allowed != nil {
			if _, ok := allowed[o.Status]; !ok {
				continue
			}
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.From != nil && o.Date.Before(from) {
			continue
		}
		if f.To != nil && o.Date.After(to) {
			continue
		}
		if ranged {
			v, ok := o.Metric(f.Metric)
			if !ok {
				continue
			}
			if f.Min != nil && v < *f.Min {
				continue
			}
			if f.Max != nil && v > *f.Max {
				continue
			}
		}
		out.Observations = append(out.Observations, o)
	}
	return out
}
