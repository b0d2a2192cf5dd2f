package infraboard

import (
	base "github.com/ghalamif/InfraBoard/pkg/infraboard"
)

// Re-exported errors for convenience.
var (
	ErrDatasetNotFound   = base.ErrDatasetNotFound
	ErrMissingColumn     = base.ErrMissingColumn
	ErrInsufficientData  = base.ErrInsufficientData
	ErrUnknownStrategy   = base.ErrUnknownStrategy
	ErrInvalidFilter     = base.ErrInvalidFilter
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrEmptyDataset      = base.ErrEmptyDataset
)

// Type aliases so consumers can import github.com/ghalamif/InfraBoard directly.
type (
	Config             = base.Config
	Policy             = base.Policy
	DatasetsConfig     = base.DatasetsConfig
	SourceConfig       = base.SourceConfig
	S3Config           = base.S3Config
	SQLConfig          = base.SQLConfig
	Columns            = base.Columns
	EvaluationColumns  = base.EvaluationColumns
	ForestConfig       = base.ForestConfig
	EvaluationConfig   = base.EvaluationConfig
	PresentationConfig = base.PresentationConfig
	HTTPConfig         = base.HTTPConfig
	MetricsConfig      = base.MetricsConfig
	SinkConfig         = base.SinkConfig
	OutboxConfig       = base.OutboxConfig
	NATSConfig         = base.NATSConfig

	Flow            = base.Flow
	FlowOption      = base.FlowOption
	InOption        = base.InOption
	OutOption       = base.OutOption
	Dashboard       = base.Dashboard
	DashboardOption = base.DashboardOption

	Report                = base.Report
	Filter                = base.Filter
	KPI                   = base.KPI
	StatusCounts          = base.StatusCounts
	DailyStatusCount      = base.DailyStatusCount
	StatusResourceAverage = base.StatusResourceAverage
	ForecastPoint         = base.ForecastPoint
	Evaluation            = base.Evaluation
	Observation           = base.Observation
	Table                 = base.Table
	EvaluationTable       = base.EvaluationTable
	MemoryDataset         = base.MemoryDataset
	ReportCallback        = base.ReportCallback

	Loader           = base.Loader
	EvaluationLoader = base.EvaluationLoader
	Forecaster       = base.Forecaster
	ForecastInput    = base.ForecastInput
	ReportSink       = base.ReportSink
	Publisher        = base.Publisher
	Observability    = base.Observability
	Field            = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig(path string) *Config {
	return base.DefaultConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...DashboardOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func InLoader(l Loader) InOption {
	return base.InLoader(l)
}

func InEvaluation(l EvaluationLoader) InOption {
	return base.InEvaluation(l)
}

func InObservability(obs Observability) InOption {
	return base.InObservability(obs)
}

func OutForecaster(fc Forecaster) OutOption {
	return base.OutForecaster(fc)
}

func OutSink(s ReportSink) OutOption {
	return base.OutSink(s)
}

func OutPublisher(p Publisher) OutOption {
	return base.OutPublisher(p)
}

func OutObservability(obs Observability) OutOption {
	return base.OutObservability(obs)
}

func OutCallback(name string, fn ReportCallback) OutOption {
	return base.OutCallback(name, fn)
}

// Dashboard and options.
func NewDashboard(cfg *Config, opts ...DashboardOption) (*Dashboard, error) {
	return base.NewDashboard(cfg, opts...)
}

func WithLoader(l Loader) DashboardOption {
	return base.WithLoader(l)
}

func WithEvaluationLoader(l EvaluationLoader) DashboardOption {
	return base.WithEvaluationLoader(l)
}

func WithForecaster(f Forecaster) DashboardOption {
	return base.WithForecaster(f)
}

func WithSink(s ReportSink) DashboardOption {
	return base.WithSink(s)
}

func WithPublisher(p Publisher) DashboardOption {
	return base.WithPublisher(p)
}

func WithObservability(obs Observability) DashboardOption {
	return base.WithObservability(obs)
}

// Sink adapters.
func NewCallbackSink(name string, fn ReportCallback) ReportSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (ReportSink, <-chan *Report, func()) {
	return base.NewChannelSink(name, buffer)
}

// In-memory dataset.
func NewMemoryDataset(name string) *MemoryDataset {
	return base.NewMemoryDataset(name)
}
