package ports

import (
	"context"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

type ReportSink interface {
	WriteReport(ctx context.Context, r *domain.Report) error
	Name() string
}

// Publisher fans a KPI summary of each report out to subscribers.
type Publisher interface {
	PublishReport(r *domain.Report) error
	Close()
}
