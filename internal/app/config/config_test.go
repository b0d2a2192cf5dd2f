package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
datasets:
  infrastructure:
    path: ./data/infra.csv
policy:
  horizon: 14
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Policy.Horizon != 14 {
		t.Fatalf("expected horizon 14, got %d", cfg.Policy.Horizon)
	}
	if cfg.Policy.SmoothingWindow != 7 {
		t.Fatalf("expected smoothing window default 7, got %d", cfg.Policy.SmoothingWindow)
	}
	if len(cfg.Policy.Strategies) != 1 || cfg.Policy.Strategies[0] != "linear_trend" {
		t.Fatalf("expected default strategy linear_trend, got %v", cfg.Policy.Strategies)
	}
	if len(cfg.Policy.KPIStatuses) != 4 || cfg.Policy.KPIStatuses[0] != "Crítico" {
		t.Fatalf("unexpected kpi statuses %v", cfg.Policy.KPIStatuses)
	}
	if cfg.Datasets.Infrastructure.Kind != "csv" {
		t.Fatalf("expected csv source, got %s", cfg.Datasets.Infrastructure.Kind)
	}
	if cfg.Columns.Status != "Estado del Sistema" {
		t.Fatalf("expected default status header, got %s", cfg.Columns.Status)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Metrics.Addr != ":9100" {
		t.Fatalf("unexpected addrs %s %s", cfg.HTTP.Addr, cfg.Metrics.Addr)
	}
	if cfg.NATS.Subject != "infraboard.kpis" || cfg.NATS.URL != "" {
		t.Fatalf("unexpected nats config %+v", cfg.NATS)
	}
	if cfg.Forest.Trees != 100 || cfg.Evaluation.PositiveLabel != "Crítico" {
		t.Fatalf("forest/evaluation defaults not applied: %+v %+v", cfg.Forest, cfg.Evaluation)
	}
	if cfg.Datasets.Evaluation.Configured() {
		t.Fatalf("evaluation dataset should be optional and unset")
	}
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	path := writeConfig(t, `
datasets:
  infrastructure:
    path: infra.csv
policy:
  strategies: [linear_trend, arima]
`)

	_, err := Load(path)
	if !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"missing dataset": `policy: {horizon: 3}`,
		"bad evaluation source": `
datasets:
  infrastructure: {path: infra.csv}
  evaluation: {source: sql, sql: {dsn: "x", table: "bad table"}}
`,
		"bad chart": `
datasets:
  infrastructure: {path: infra.csv}
presentation:
  charts: [pie]
`,
		"negative horizon": `
datasets:
  infrastructure: {path: infra.csv}
policy: {horizon: -1}
`,
		"outbox without sink": `
datasets:
  infrastructure: {path: infra.csv}
outbox: {dir: /tmp/spool}
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, data)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadOutbox(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
datasets:
  infrastructure: {path: infra.csv}
sink:
  conn_string: postgres://localhost/ops
outbox:
  dir: ./spool
  retry_interval: 5s
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Outbox.Dir != "./spool" || cfg.Outbox.RetryInterval != 5*time.Second {
		t.Fatalf("unexpected outbox config %+v", cfg.Outbox)
	}
	if Default("infra.csv").Outbox.RetryInterval != 30*time.Second {
		t.Fatalf("expected default retry interval")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("infra.csv")
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Datasets.Infrastructure.Path != "infra.csv" {
		t.Fatalf("unexpected path %s", cfg.Datasets.Infrastructure.Path)
	}
}
