package infraboard

import (
	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// Report is the output of one dashboard pass.
type Report = domain.Report

// Filter narrows the rows a pass aggregates.
type Filter = domain.Filter

type (
	KPI                   = domain.KPI
	StatusCounts          = domain.StatusCounts
	DailyStatusCount      = domain.DailyStatusCount
	StatusResourceAverage = domain.StatusResourceAverage
	ForecastPoint         = domain.ForecastPoint
	Evaluation            = domain.Evaluation
)

// Observation is one row of the infrastructure dataset.
type Observation = domain.Observation

// Table is a loaded infrastructure dataset.
type Table = domain.Table

// EvaluationTable is a loaded model evaluation dataset.
type EvaluationTable = domain.EvaluationTable

// Loader reads the infrastructure dataset.
type Loader = ports.Loader

// EvaluationLoader reads the optional evaluation dataset.
type EvaluationLoader = ports.EvaluationLoader

// Forecaster extends the observed series. Register custom strategies with WithForecaster.
type Forecaster = ports.Forecaster

// ForecastInput is what a Forecaster extrapolates from.
type ForecastInput = ports.ForecastInput

// ReportSink receives every rendered report.
type ReportSink = ports.ReportSink

// Publisher fans a KPI summary out to subscribers.
type Publisher = ports.Publisher

// Observability emits metrics and structured logs about each pass.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Sentinel errors.
var (
	ErrDatasetNotFound  = domain.ErrDatasetNotFound
	ErrMissingColumn    = domain.ErrMissingColumn
	ErrInsufficientData = domain.ErrInsufficientData
	ErrUnknownStrategy  = domain.ErrUnknownStrategy
	ErrInvalidFilter    = domain.ErrInvalidFilter
)
