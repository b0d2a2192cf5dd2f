package infraboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// ErrEmptyDataset is returned by a MemoryDataset that has not received any
// observations yet. It matches ErrDatasetNotFound.
var ErrEmptyDataset = fmt.Errorf("memory dataset is empty: %w", domain.ErrDatasetNotFound)

// MemoryDataset is a Loader fed by the caller instead of a file or database.
// Every Load returns an independent snapshot, so appends never race with a
// running pass.
type MemoryDataset struct {
	name string

	mu      sync.RWMutex
	obs     []Observation
	metrics map[string]struct{}
}

func NewMemoryDataset(name string) *MemoryDataset {
	if name == "" {
		name = "memory"
	}
	return &MemoryDataset{name: name, metrics: make(map[string]struct{})}
}

// Append records observations. Dates are truncated to their UTC day.
func (m *MemoryDataset) Append(obs ...Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range obs {
		metrics := make(map[string]float64, len(o.Metrics))
		for k, v := range o.Metrics {
			metrics[k] = v
			m.metrics[k] = struct{}{}
		}
		m.obs = append(m.obs, Observation{Date: domain.Day(o.Date), Status: o.Status, Metrics: metrics})
	}
}

// Record is shorthand for Append with a single observation.
func (m *MemoryDataset) Record(ts time.Time, status string, metrics map[string]float64) {
	m.Append(Observation{Date: ts, Status: status, Metrics: metrics})
}

func (m *MemoryDataset) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.obs)
}

func (m *MemoryDataset) Name() string { return m.name }

func (m *MemoryDataset) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.obs) == 0 {
		return nil, ErrEmptyDataset
	}

	t := &Table{Observations: make([]Observation, len(m.obs))}
	copy(t.Observations, m.obs)
	for k := range m.metrics {
		t.Metrics = append(t.Metrics, k)
	}
	sort.Strings(t.Metrics)
	return t, nil
}

var _ Loader = (*MemoryDataset)(nil)
