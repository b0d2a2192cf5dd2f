package infraboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfFromConfigAndBuilder(t *testing.T) {
	cfg := DefaultConfig("unused.csv")

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	loader := scenarioDataset()
	var got []*Report

	d, err := flow.
		In(
			InLoader(loader),
			InObservability(&stubObservability{}),
		).
		Out(
			OutCallback("capture", func(r *Report) error {
				got = append(got, r)
				return nil
			}),
			OutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("Out returned error: %v", err)
	}
	if d.loader != loader {
		t.Fatalf("expected custom loader to be wired")
	}

	if _, err := d.Render(context.Background(), Filter{Status: "Crítico"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(got) != 1 || got[0].Rows != 2 {
		t.Fatalf("expected callback to receive the filtered report, got %+v", got)
	}
}

func TestConfLoadsCSVFromYAML(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "infra.csv")
	data := "Fecha,Estado del Sistema,Uso CPU (%),Temperatura (°C),Carga de Red (MB/s)\n" +
		"2024-01-01,Normal,10,40,100\n" +
		"2024-01-02,Normal,20,42,110\n" +
		"2024-01-03,Crítico,90,70,300\n"
	if err := os.WriteFile(csvPath, []byte(data), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := "datasets:\n  infrastructure:\n    path: " + csvPath + "\npolicy:\n  horizon: 2\n  strategies: [linear_trend, forest]\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(cfgPath, WithFlowOptions(WithObservability(&stubObservability{})))
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}
	d, err := flow.Out()
	if err != nil {
		t.Fatalf("Out returned error: %v", err)
	}
	defer d.Shutdown(context.Background())

	rep, err := d.Render(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if rep.Rows != 3 || len(rep.Forecasts["forest"]) != 2 {
		t.Fatalf("unexpected report rows=%d forecasts=%v", rep.Rows, rep.Forecasts)
	}
}

func TestFlowLaterStepsWin(t *testing.T) {
	flow, err := ConfFromConfig(DefaultConfig("unused.csv"), WithFlowOptions(WithLoader(scenarioDataset())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	inObs, outObs := &namedObservability{name: "in"}, &namedObservability{name: "out"}
	loader := scenarioDataset()

	d, err := flow.In(InLoader(loader), InLoader(nil), InObservability(inObs)).
		Out(OutObservability(outObs), OutSink(nil), nil)
	if err != nil {
		t.Fatalf("Out returned error: %v", err)
	}
	if d.loader != loader {
		t.Fatalf("expected the In loader to replace the Conf loader")
	}
	if d.obs != outObs {
		t.Fatalf("expected the Out observability to replace the In one")
	}
	if len(d.sinks) != 0 {
		t.Fatalf("nil sinks must be ignored, got %d", len(d.sinks))
	}
}

type namedObservability struct {
	stubObservability
	name string
}

func TestNilFlow(t *testing.T) {
	var f *Flow
	if f.In() != nil || f.Options() != nil || f.Config() != nil {
		t.Fatalf("nil flow should stay nil")
	}
	if _, err := f.Out(); err == nil {
		t.Fatalf("expected error from nil flow")
	}
	if _, err := ConfFromConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
