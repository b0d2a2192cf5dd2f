package bus

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
	drained bool
	closed  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func TestPublishReportSendsKPISummary(t *testing.T) {
	fc := &fakeConn{}
	pub := &Publisher{conn: fc, subject: "infraboard.kpis"}

	r := &domain.Report{
		ID:          "abc",
		GeneratedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Rows:        3,
		KPIs:        []domain.KPI{{Status: "Crítico", Count: 2}, {Status: "Normal", Count: 0}},
		Skipped:     []string{"forest: missing column temperature"},
		Daily:       []domain.DailyStatusCount{{Status: "Crítico", Count: 2}},
	}
	if err := pub.PublishReport(r); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if fc.subject != "infraboard.kpis" {
		t.Fatalf("unexpected subject %s", fc.subject)
	}
	var got KPISummary
	if err := json.Unmarshal(fc.data, &got); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if got.ReportID != "abc" || got.Rows != 3 || len(got.KPIs) != 2 || got.KPIs[1].Count != 0 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if len(got.Skipped) != 1 {
		t.Fatalf("expected skipped reasons to be forwarded, got %v", got.Skipped)
	}
}

func TestPublishReportPropagatesErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("no responders")}
	pub := &Publisher{conn: fc, subject: "s"}
	if err := pub.PublishReport(&domain.Report{}); err == nil {
		t.Fatalf("expected publish error")
	}
	if err := pub.PublishReport(nil); err != nil {
		t.Fatalf("nil report should be ignored, got %v", err)
	}
}

func TestCloseDrains(t *testing.T) {
	fc := &fakeConn{}
	pub := &Publisher{conn: fc, subject: "s"}
	pub.Close()
	if !fc.drained || !fc.closed {
		t.Fatalf("expected drain and close, got %+v", fc)
	}
}
