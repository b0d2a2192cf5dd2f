package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// filterRequest is the websocket form of the query-string filter.
type filterRequest struct {
	Statuses []string `json:"statuses"`
	Selected string   `json:"selected"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Metric   string   `json:"metric"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

func (r filterRequest) toFilter() (domain.Filter, error) {
	f := domain.Filter{
		Statuses: r.Statuses,
		Status:   strings.TrimSpace(r.Selected),
		Metric:   strings.TrimSpace(r.Metric),
		Min:      r.Min,
		Max:      r.Max,
	}
	var err error
	if f.From, err = parseDay(r.From); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseDay(r.To); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	return f, f.Validate()
}

// parseFilter reads status (repeatable or comma separated), selected, from,
// to, metric, min and max.
func parseFilter(q url.Values) (domain.Filter, error) {
	req := filterRequest{
		Selected: q.Get("selected"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Metric:   q.Get("metric"),
	}
	for _, v := range q["status"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Statuses = append(req.Statuses, s)
			}
		}
	}
	var err error
	if req.Min, err = parseBound(q.Get("min")); err != nil {
		return domain.Filter{}, fmt.Errorf("min: %w", err)
	}
	if req.Max, err = parseBound(q.Get("max")); err != nil {
		return domain.Filter{}, fmt.Errorf("max: %w", err)
	}
	return req.toFilter()
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			d := domain.Day(ts)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

func parseBound(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
