package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// Config selects where a dataset lives. Kind is one of "csv", "s3" or "sql".
type Config struct {
	Kind string    `yaml:"source"`
	Path string    `yaml:"path"`
	S3   S3Config  `yaml:"s3"`
	SQL  SQLConfig `yaml:"sql"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

func (c *Config) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = "csv"
	}
	c.Kind = strings.ToLower(c.Kind)
	if c.SQL.Driver == "" {
		c.SQL.Driver = "postgres"
	}
}

// Configured reports whether a dataset was declared at all.
func (c *Config) Configured() bool {
	return c.Path != "" || c.S3.Key != "" || c.SQL.Table != ""
}

func (c *Config) Validate() error {
	switch c.Kind {
	case "csv":
		if c.Path == "" {
			return errors.New("path is required for csv sources")
		}
	case "s3":
		if c.S3.Endpoint == "" || c.S3.Bucket == "" || c.S3.Key == "" {
			return errors.New("s3.endpoint, s3.bucket and s3.key are required for s3 sources")
		}
	case "sql":
		if c.SQL.DSN == "" || c.SQL.Table == "" {
			return errors.New("sql.dsn and sql.table are required for sql sources")
		}
		if _, err := driverName(c.SQL.Driver); err != nil {
			return err
		}
		if !identifierPattern.MatchString(c.SQL.Table) {
			return fmt.Errorf("sql.table %q is not a valid identifier", c.SQL.Table)
		}
	default:
		return fmt.Errorf("unsupported source %q", c.Kind)
	}
	return nil
}

// Columns maps logical names onto the dataset's headers. Headers are
// compared after trimming surrounding whitespace.
type Columns struct {
	Date    string            `yaml:"date"`
	Status  string            `yaml:"status"`
	Metrics map[string]string `yaml:"metrics"`
}

func (c *Columns) ApplyDefaults() {
	if c.Date == "" {
		c.Date = "Fecha"
	}
	if c.Status == "" {
		c.Status = "Estado del Sistema"
	}
	if len(c.Metrics) == 0 {
		c.Metrics = map[string]string{
			domain.MetricCPU:         "Uso CPU (%)",
			domain.MetricMemory:      "Memoria Utilizada (%)",
			domain.MetricNetwork:     "Carga de Red (MB/s)",
			domain.MetricLatency:     "Latencia de Red (ms)",
			domain.MetricTemperature: "Temperatura (°C)",
		}
	}
}

type EvaluationColumns struct {
	Actual    string            `yaml:"actual"`
	Predicted string            `yaml:"predicted"`
	Score     string            `yaml:"score"`
	Status    string            `yaml:"status"`
	Metrics   map[string]string `yaml:"metrics"`
}

func (c *EvaluationColumns) ApplyDefaults() {
	if c.Actual == "" {
		c.Actual = "Estado Real"
	}
	if c.Predicted == "" {
		c.Predicted = "Estado Predicho"
	}
	if c.Score == "" {
		c.Score = "Probabilidad"
	}
	if c.Status == "" {
		c.Status = "Estado del Sistema"
	}
	if len(c.Metrics) == 0 {
		c.Metrics = map[string]string{
			domain.MetricPrecision:   "Precisión Modelo",
			domain.MetricEfficiency:  "Eficiencia Comparativa",
			domain.MetricCPU:         "Uso CPU (%)",
			domain.MetricTemperature: "Temperatura (°C)",
		}
	}
}
