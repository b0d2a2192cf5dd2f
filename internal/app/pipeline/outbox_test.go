package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

func TestFailedSinkWritesAreSpooledAndRedelivered(t *testing.T) {
	snk := &stubSink{err: errors.New("connection refused")}
	box := &memOutbox{}
	p, o := newTestPipeline(t, Deps{Loader: &stubLoader{table: scenarioTable()}, Sink: snk, Outbox: box})

	first, err := p.Run(context.Background(), domain.Filter{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := p.Run(context.Background(), domain.Filter{Status: "Crítico"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if box.Stats().Pending() != 2 {
		t.Fatalf("expected two spooled reports, got %+v", box.Stats())
	}

	n, err := p.Redeliver(context.Background())
	if err == nil || n != 0 {
		t.Fatalf("expected redelivery to stop on a failing sink, n=%d err=%v", n, err)
	}
	if box.Stats().Pending() != 2 {
		t.Fatalf("failed redelivery must not commit")
	}

	snk.err = nil
	var delivered []string
	snk.onWrite = func(r *domain.Report) { delivered = append(delivered, r.ID) }
	n, err = p.Redeliver(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected two redelivered reports, n=%d err=%v", n, err)
	}
	if len(delivered) != 2 || delivered[0] != first.ID || delivered[1] != second.ID {
		t.Fatalf("expected redelivery in spool order, got %v", delivered)
	}
	if box.Stats().Pending() != 0 || box.compactions != 1 {
		t.Fatalf("expected committed and compacted outbox, got %+v compactions=%d", box.Stats(), box.compactions)
	}
	if o.counters[ports.MetricPublished] != 2 {
		t.Fatalf("expected two published reports, got %v", o.counters)
	}

	n, err = p.Redeliver(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("empty outbox should be a no-op, n=%d err=%v", n, err)
	}
}

func TestRedeliverPartialProgressIsCommitted(t *testing.T) {
	box := &memOutbox{}
	box.Append(&domain.Report{ID: "a"})
	box.Append(&domain.Report{ID: "b"})

	snk := &stubSink{}
	snk.onWrite = func(r *domain.Report) {
		if r.ID == "b" {
			snk.err = errors.New("timeout")
		}
	}
	p, _ := newTestPipeline(t, Deps{Loader: &stubLoader{table: scenarioTable()}, Sink: snk, Outbox: box})

	n, err := p.Redeliver(context.Background())
	if err == nil || n != 1 {
		t.Fatalf("expected one delivery then an error, n=%d err=%v", n, err)
	}
	if box.committed != 1 || box.Stats().Pending() != 1 {
		t.Fatalf("expected first entry committed, got %+v", box.Stats())
	}
}

func TestRedeliverOnlyRetriesDurableSink(t *testing.T) {
	durable := &stubSink{err: errors.New("connection refused")}
	var copies int
	healthy := &stubSink{onWrite: func(*domain.Report) { copies++ }}
	box := &memOutbox{}
	p, _ := newTestPipeline(t, Deps{
		Loader: &stubLoader{table: scenarioTable()},
		Sink:   durable,
		Sinks:  []ports.ReportSink{healthy},
		Outbox: box,
	})

	if _, err := p.Run(context.Background(), domain.Filter{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Redeliver(context.Background()); err == nil {
			t.Fatalf("expected redelivery to fail while the durable sink is down")
		}
	}
	if copies != 1 {
		t.Fatalf("healthy sink must receive one copy, got %d", copies)
	}
	if box.Stats().Pending() != 1 {
		t.Fatalf("expected the report to stay spooled, got %+v", box.Stats())
	}

	durable.err = nil
	if n, err := p.Redeliver(context.Background()); err != nil || n != 1 {
		t.Fatalf("expected one redelivered report, n=%d err=%v", n, err)
	}
	if copies != 1 {
		t.Fatalf("redelivery must not reach the healthy sink, got %d copies", copies)
	}
}

func TestFailingExtraSinkIsNotSpooled(t *testing.T) {
	box := &memOutbox{}
	p, o := newTestPipeline(t, Deps{
		Loader: &stubLoader{table: scenarioTable()},
		Sinks:  []ports.ReportSink{&stubSink{err: errors.New("closed")}},
		Outbox: box,
	})

	if _, err := p.Run(context.Background(), domain.Filter{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(box.reports) != 0 || len(o.errors) != 1 {
		t.Fatalf("expected a logged failure and nothing spooled, got %d spooled, errors %v", len(box.reports), o.errors)
	}
}

func TestRedeliverWritesOutsideOutboxLock(t *testing.T) {
	box := &memOutbox{}
	box.Append(&domain.Report{ID: "a"})
	box.Append(&domain.Report{ID: "b"})

	var locked, deadline int
	snk := &stubSink{}
	snk.onCtx = func(ctx context.Context) {
		if box.mu.TryLock() {
			box.mu.Unlock()
		} else {
			locked++
		}
		if _, ok := ctx.Deadline(); ok {
			deadline++
		}
	}
	p, _ := newTestPipeline(t, Deps{Loader: &stubLoader{table: scenarioTable()}, Sink: snk, Outbox: box})

	n, err := p.Redeliver(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected two redelivered reports, n=%d err=%v", n, err)
	}
	if locked != 0 {
		t.Fatalf("sink writes must not run under the outbox lock, %d did", locked)
	}
	if deadline != 2 {
		t.Fatalf("expected every redelivery write to carry a deadline, got %d", deadline)
	}
}

func TestRedeliverReadsBoundedBatch(t *testing.T) {
	box := &memOutbox{}
	for i := 0; i < redeliverBatch+5; i++ {
		box.Append(&domain.Report{ID: "r"})
	}
	p, _ := newTestPipeline(t, Deps{Loader: &stubLoader{table: scenarioTable()}, Sink: &stubSink{}, Outbox: box})

	n, err := p.Redeliver(context.Background())
	if err != nil || n != redeliverBatch {
		t.Fatalf("expected one batch of %d, n=%d err=%v", redeliverBatch, n, err)
	}
	if n, err = p.Redeliver(context.Background()); err != nil || n != 5 {
		t.Fatalf("expected the remaining 5, n=%d err=%v", n, err)
	}
}

func TestSpoolFailureIsCritical(t *testing.T) {
	box := &memOutbox{appendErr: errors.New("disk full")}
	p, o := newTestPipeline(t, Deps{
		Loader: &stubLoader{table: scenarioTable()},
		Sink:   &stubSink{err: errors.New("down")},
		Outbox: box,
	})

	if _, err := p.Run(context.Background(), domain.Filter{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(o.critical) != 1 {
		t.Fatalf("expected a critical log for the lost report, got %v", o.critical)
	}
}

type memOutbox struct {
	mu          sync.Mutex
	reports     []*domain.Report
	committed   ports.OutboxEntryID
	compactions int
	appendErr   error
}

func (m *memOutbox) Append(r *domain.Report) (ports.OutboxEntryID, error) {
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.reports = append(m.reports, r)
	return ports.OutboxEntryID(len(m.reports)), nil
}

func (m *memOutbox) Iterate(from ports.OutboxEntryID, fn func(ports.OutboxEntryID, *domain.Report) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reports {
		id := ports.OutboxEntryID(i + 1)
		if id < from {
			continue
		}
		if err := fn(id, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *memOutbox) Commit(upto ports.OutboxEntryID) error {
	if upto > m.committed {
		m.committed = upto
	}
	return nil
}

func (m *memOutbox) Compact() error {
	m.compactions++
	return nil
}

func (m *memOutbox) Stats() ports.OutboxStats {
	return ports.OutboxStats{
		OldestUncommitted: m.committed + 1,
		LatestAppended:    ports.OutboxEntryID(len(m.reports)),
	}
}

func (m *memOutbox) Close() error { return nil }
