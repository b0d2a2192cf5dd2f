package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/InfraBoard/internal/adapters/source"
	"github.com/ghalamif/InfraBoard/internal/adapters/web"
	"github.com/ghalamif/InfraBoard/internal/app/evaluate"
	"github.com/ghalamif/InfraBoard/internal/app/forecast"
	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

type Config struct {
	Datasets          DatasetsConfig           `yaml:"datasets"`
	Columns           source.Columns           `yaml:"columns"`
	EvaluationColumns source.EvaluationColumns `yaml:"evaluation_columns"`
	Policy            ports.Policy             `yaml:"policy"`
	ResourceMetrics   []string                 `yaml:"resource_metrics"`
	Forest            forecast.ForestConfig    `yaml:"forest"`
	Evaluation        evaluate.Config          `yaml:"evaluation"`
	Presentation      web.Config               `yaml:"presentation"`
	HTTP              HTTPConfig               `yaml:"http"`
	Metrics           MetricsConfig            `yaml:"metrics"`
	Sink              SinkConfig               `yaml:"sink"`
	Outbox            OutboxConfig             `yaml:"outbox"`
	NATS              NATSConfig               `yaml:"nats"`
}

type DatasetsConfig struct {
	Infrastructure source.Config `yaml:"infrastructure"`
	Evaluation     source.Config `yaml:"evaluation"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SinkConfig enables the Postgres report sink when ConnString is set.
type SinkConfig struct {
	ConnString  string `yaml:"conn_string"`
	TablePrefix string `yaml:"table_prefix"`
}

// OutboxConfig spools reports the sink rejected under Dir and retries them
// every RetryInterval. Empty Dir disables it.
type OutboxConfig struct {
	Dir           string        `yaml:"dir"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// NATSConfig enables KPI publishing when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration reading the infrastructure dataset from
// path, with every other setting defaulted.
func Default(path string) *Config {
	cfg := &Config{}
	cfg.Datasets.Infrastructure.Path = path
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Policy.SmoothingWindow == 0 {
		c.Policy.SmoothingWindow = 7
	}
	if c.Policy.Horizon == 0 {
		c.Policy.Horizon = 30
	}
	if len(c.Policy.Strategies) == 0 {
		c.Policy.Strategies = []string{forecast.LinearTrendName}
	}
	if len(c.Policy.KPIStatuses) == 0 {
		c.Policy.KPIStatuses = []string{"Crítico", "Advertencia", "Normal", "Inactivo"}
	}
	if len(c.ResourceMetrics) == 0 {
		c.ResourceMetrics = []string{domain.MetricCPU, domain.MetricMemory, domain.MetricNetwork}
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Sink.TablePrefix == "" {
		c.Sink.TablePrefix = "infraboard"
	}
	if c.Outbox.RetryInterval == 0 {
		c.Outbox.RetryInterval = 30 * time.Second
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "infraboard.kpis"
	}

	c.Datasets.Infrastructure.ApplyDefaults()
	c.Datasets.Evaluation.ApplyDefaults()
	c.Columns.ApplyDefaults()
	c.EvaluationColumns.ApplyDefaults()
	c.Forest.ApplyDefaults()
	c.Evaluation.ApplyDefaults()
	c.Presentation.ApplyDefaults()
}

func (c *Config) validate() error {
	if err := c.Datasets.Infrastructure.Validate(); err != nil {
		return fmt.Errorf("datasets.infrastructure: %w", err)
	}
	if c.Datasets.Evaluation.Configured() {
		if err := c.Datasets.Evaluation.Validate(); err != nil {
			return fmt.Errorf("datasets.evaluation: %w", err)
		}
	}
	if c.Policy.SmoothingWindow < 1 {
		return fmt.Errorf("policy.smoothing_window must be >= 1, got %d", c.Policy.SmoothingWindow)
	}
	if c.Policy.Horizon < 1 {
		return fmt.Errorf("policy.horizon must be >= 1, got %d", c.Policy.Horizon)
	}
	for _, name := range c.Policy.Strategies {
		if !forecast.Known(name) {
			return fmt.Errorf("policy.strategies: %q: %w", name, domain.ErrUnknownStrategy)
		}
	}
	if c.Forest.Trees < 1 || c.Forest.MaxDepth < 1 || c.Forest.MinLeaf < 1 {
		return errors.New("forest.trees, forest.max_depth and forest.min_leaf must be positive")
	}
	if c.Evaluation.Bins < 1 {
		return fmt.Errorf("evaluation.bins must be >= 1, got %d", c.Evaluation.Bins)
	}
	if err := c.Presentation.Validate(); err != nil {
		return fmt.Errorf("presentation: %w", err)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Outbox.Dir != "" && c.Sink.ConnString == "" {
		return errors.New("outbox.dir requires sink.conn_string")
	}
	if c.Outbox.RetryInterval < 0 {
		return fmt.Errorf("outbox.retry_interval must be positive, got %s", c.Outbox.RetryInterval)
	}
	return nil
}
