package ports

type Policy struct {
	SmoothingWindow int      `yaml:"smoothing_window"`
	Horizon         int      `yaml:"horizon"`
	Strategies      []string `yaml:"strategies"`
	KPIStatuses     []string `yaml:"kpi_statuses"`
}
