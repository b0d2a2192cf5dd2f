package web

import (
	"fmt"
)

// Chart identifiers accepted in Config.Charts.
const (
	ChartStatusCounts     = "status_counts"
	ChartDailyTrend       = "daily_trend"
	ChartResourceAverages = "resource_averages"
	ChartForecast         = "forecast"
	ChartConfusion        = "confusion"
	ChartROC              = "roc"
	ChartPrecision        = "precision_histogram"
	ChartEfficiency       = "efficiency_box"
	ChartCPUTemperature   = "cpu_temperature"
)

var allCharts = []string{
	ChartStatusCounts,
	ChartDailyTrend,
	ChartResourceAverages,
	ChartForecast,
	ChartConfusion,
	ChartROC,
	ChartPrecision,
	ChartEfficiency,
	ChartCPUTemperature,
}

// Config controls how the dashboard page is laid out. It never changes what
// the report contains.
type Config struct {
	Title   string            `yaml:"title"`
	Charts  []string          `yaml:"charts"`
	Palette map[string]string `yaml:"palette"`
	Columns int               `yaml:"layout_columns"`
}

func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = "Infrastructure Dashboard"
	}
	if len(c.Charts) == 0 {
		c.Charts = append([]string(nil), allCharts...)
	}
	if c.Palette == nil {
		c.Palette = map[string]string{
			"Crítico":     "#d62728",
			"Advertencia": "#ff7f0e",
			"Normal":      "#2ca02c",
			"Inactivo":    "#7f7f7f",
		}
	}
	if c.Columns == 0 {
		c.Columns = 2
	}
}

func (c *Config) Validate() error {
	for _, chart := range c.Charts {
		if !knownChart(chart) {
			return fmt.Errorf("unknown chart %q", chart)
		}
	}
	if c.Columns < 1 || c.Columns > 4 {
		return fmt.Errorf("layout_columns must be between 1 and 4, got %d", c.Columns)
	}
	return nil
}

func knownChart(name string) bool {
	for _, c := range allCharts {
		if c == name {
			return true
		}
	}
	return false
}
