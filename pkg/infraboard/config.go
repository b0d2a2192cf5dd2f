package infraboard

import (
	"github.com/ghalamif/InfraBoard/internal/adapters/source"
	"github.com/ghalamif/InfraBoard/internal/adapters/web"
	"github.com/ghalamif/InfraBoard/internal/app/config"
	"github.com/ghalamif/InfraBoard/internal/app/evaluate"
	"github.com/ghalamif/InfraBoard/internal/app/forecast"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls smoothing, horizon, strategies and KPI tiles.
	Policy = ports.Policy
	// DatasetsConfig names the infrastructure and evaluation datasets.
	DatasetsConfig = config.DatasetsConfig
	// SourceConfig selects a csv, s3 or sql dataset.
	SourceConfig = source.Config
	// S3Config points at an object in S3 or MinIO.
	S3Config = source.S3Config
	// SQLConfig points at a database table.
	SQLConfig = source.SQLConfig
	// Columns maps logical names onto infrastructure headers.
	Columns = source.Columns
	// EvaluationColumns maps logical names onto evaluation headers.
	EvaluationColumns = source.EvaluationColumns
	// ForestConfig tunes the forest forecast strategy.
	ForestConfig = forecast.ForestConfig
	// EvaluationConfig sets the ROC positive label and histogram bins.
	EvaluationConfig = evaluate.Config
	// PresentationConfig controls the dashboard page layout.
	PresentationConfig = web.Config
	HTTPConfig         = config.HTTPConfig
	MetricsConfig      = config.MetricsConfig
	SinkConfig         = config.SinkConfig
	NATSConfig         = config.NATSConfig
	OutboxConfig       = config.OutboxConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig reads the infrastructure CSV at path with default settings.
func DefaultConfig(path string) *Config {
	return config.Default(path)
}
