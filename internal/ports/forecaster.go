package ports

import (
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// ForecastInput is everything a strategy may extrapolate from: the smoothed
// daily series and the filtered table it was derived from.
type ForecastInput struct {
	Daily []domain.DailyStatusCount
	Table *domain.Table
}

// Forecaster extends an observed series a fixed number of periods forward.
// A strategy that lacks the data it needs returns no points and a nil error.
type Forecaster interface {
	Forecast(in ForecastInput, horizon int) ([]domain.ForecastPoint, error)
	Name() string
}

// Period is the fixed forecast step. Forecast point k (1-based) lands on
// lastDate + k*Period.
const Period = 24 * time.Hour

// MetricRequirer is implemented by strategies that only run when the table
// carries specific metric columns.
type MetricRequirer interface {
	RequiredMetrics() []string
}
