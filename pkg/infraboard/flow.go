package infraboard

import (
	"context"
	"fmt"
)

// Flow assembles a Dashboard in three steps: Conf picks the configuration,
// In swaps the datasets the report is computed from, Out adds where reports
// go. Options from the three steps are applied in that order, so a later
// step wins when two of them set the same dependency.
type Flow struct {
	cfg  *Config
	conf []DashboardOption
	in   []DashboardOption
	out  []DashboardOption
}

// FlowOption adjusts a Flow while Conf builds it.
type FlowOption func(*Flow)

// InOption replaces an input of the report pipeline: the infrastructure or
// evaluation dataset, or the observability backend the loaders report to.
type InOption func() DashboardOption

// OutOption adds a consumer of rendered reports: a forecast strategy, a sink,
// a callback or the publisher.
type OutOption func() DashboardOption

// Conf reads the YAML config at path and starts a Flow from it.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig starts a Flow from a Config built in code.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config is the configuration the dashboard will be built from. Changes made
// to it before Out take effect.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options adds DashboardOption values ahead of the In and Out steps.
func (f *Flow) Options(opts ...DashboardOption) *Flow {
	if f == nil {
		return nil
	}
	f.conf = collect(f.conf, opts...)
	return f
}

func (f *Flow) In(opts ...InOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			f.in = collect(f.in, opt())
		}
	}
	return f
}

// Out adds the report consumers and builds the Dashboard. Nothing is served
// until Start or Run.
func (f *Flow) Out(opts ...OutOption) (*Dashboard, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			f.out = collect(f.out, opt())
		}
	}
	all := make([]DashboardOption, 0, len(f.conf)+len(f.in)+len(f.out))
	all = append(all, f.conf...)
	all = append(all, f.in...)
	all = append(all, f.out...)
	return NewDashboard(f.cfg, all...)
}

// Run builds the dashboard and serves it until ctx is cancelled.
func (f *Flow) Run(ctx context.Context, opts ...OutOption) error {
	d, err := f.Out(opts...)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

// WithFlowOptions passes DashboardOption values through Conf.
func WithFlowOptions(opts ...DashboardOption) FlowOption {
	return func(f *Flow) {
		f.conf = collect(f.conf, opts...)
	}
}

// InLoader computes reports from l instead of the configured dataset.
func InLoader(l Loader) InOption {
	return func() DashboardOption {
		if l == nil {
			return nil
		}
		return WithLoader(l)
	}
}

// InEvaluation scores the classifier against l instead of the configured
// evaluation dataset.
func InEvaluation(l EvaluationLoader) InOption {
	return func() DashboardOption {
		if l == nil {
			return nil
		}
		return WithEvaluationLoader(l)
	}
}

func InObservability(obs Observability) InOption {
	return func() DashboardOption {
		if obs == nil {
			return nil
		}
		return WithObservability(obs)
	}
}

// OutForecaster runs fc after the configured strategies.
func OutForecaster(fc Forecaster) OutOption {
	return func() DashboardOption {
		if fc == nil {
			return nil
		}
		return WithForecaster(fc)
	}
}

// OutSink hands every report to s once. Unlike the Postgres sink, a failed
// write to s is not retried.
func OutSink(s ReportSink) OutOption {
	return func() DashboardOption {
		if s == nil {
			return nil
		}
		return WithSink(s)
	}
}

// OutPublisher broadcasts reports through p instead of NATS.
func OutPublisher(p Publisher) OutOption {
	return func() DashboardOption {
		if p == nil {
			return nil
		}
		return WithPublisher(p)
	}
}

// OutObservability overrides any backend set during In.
func OutObservability(obs Observability) OutOption {
	return func() DashboardOption {
		if obs == nil {
			return nil
		}
		return WithObservability(obs)
	}
}

// OutCallback calls fn with every rendered report.
func OutCallback(name string, fn ReportCallback) OutOption {
	return func() DashboardOption {
		return WithSink(NewCallbackSink(name, fn))
	}
}

func collect(dst []DashboardOption, opts ...DashboardOption) []DashboardOption {
	for _, opt := range opts {
		if opt != nil {
			dst = append(dst, opt)
		}
	}
	return dst
}
