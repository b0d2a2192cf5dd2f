package bus

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// KPISummary is the message published for every rendered report.
type KPISummary struct {
	ReportID    string       `json:"report_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Rows        int          `json:"rows"`
	KPIs        []domain.KPI `json:"kpis"`
	Skipped     []string     `json:"skipped,omitempty"`
}

func Summarize(r *domain.Report) KPISummary {
	return KPISummary{
		ReportID:    r.ID,
		GeneratedAt: r.GeneratedAt,
		Rows:        r.Rows,
		KPIs:        r.KPIs,
		Skipped:     r.Skipped,
	}
}

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

type Publisher struct {
	conn    conn
	subject string
}

func NewPublisher(url, subject string) (*Publisher, error) {
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	c, err := nats.Connect(url, nats.Name("infraboard"))
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: c, subject: subject}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
		p.conn.Close()
	}
}

func (p *Publisher) PublishReport(r *domain.Report) error {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(Summarize(r))
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, data)
}

var _ ports.Publisher = (*Publisher)(nil)
