// Package wiring assembles a runnable detective engine from configuration.
package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jakim54/cii-best-practices-badge/internal/config"
	"github.com/jakim54/cii-best-practices-badge/internal/detectives/github"
	"github.com/jakim54/cii-best-practices-badge/internal/detectives/static"
	"github.com/jakim54/cii-best-practices-badge/internal/evidence"
	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	"github.com/jakim54/cii-best-practices-badge/internal/metrics"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// Options adjusts what Build wires around the configured engine.
type Options struct {
	// Source replaces the HTTP evidence source (cassette playback, stubs).
	Source detective.EvidenceSource
	// Metrics, when set, observes runs and instruments the source.
	Metrics   *metrics.Metrics
	Observers []detective.Observer
	Logger    *slog.Logger
}

// Runtime is a configured engine bound to its evidence source.
type Runtime struct {
	Engine *detective.Engine
	Source detective.EvidenceSource
	Config *config.Config
}

// Build registers the configured detectives, builds the engine and the
// evidence source.
func Build(cfg *config.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("engine")
	}

	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	reinvoke, err := detective.ParseReinvocation(cfg.Engine.Reinvocation)
	if err != nil {
		return nil, err
	}
	engineOpts := []detective.Option{
		detective.WithMaxPasses(cfg.Engine.MaxPasses),
		detective.WithParallelism(cfg.Engine.Parallelism),
		detective.WithReinvocation(reinvoke),
		detective.WithLogger(logger),
	}
	if d := cfg.Engine.DetectiveTimeout.Std(); d > 0 {
		engineOpts = append(engineOpts, detective.WithDetectiveTimeout(d))
	}
	for _, o := range opts.Observers {
		engineOpts = append(engineOpts, detective.WithObserver(o))
	}
	if opts.Metrics != nil {
		engineOpts = append(engineOpts, detective.WithObserver(opts.Metrics))
	}
	eng, err := detective.NewEngine(reg, engineOpts...)
	if err != nil {
		return nil, err
	}

	src := opts.Source
	if src == nil {
		httpSrc, err := NewHTTPSource(cfg.Evidence, logging.New("evidence"))
		if err != nil {
			return nil, err
		}
		src = httpSrc
	}
	if opts.Metrics != nil {
		src = opts.Metrics.Instrument(src)
	}

	return &Runtime{Engine: eng, Source: src, Config: cfg}, nil
}

// BuildRegistry registers cfg.Detectives in file order.
func BuildRegistry(cfg *config.Config) (*detective.Registry, error) {
	reg := detective.NewRegistry()
	for _, d := range cfg.Detectives {
		var det detective.Detective
		switch d.Kind {
		case config.KindGitHub:
			det = github.New(github.WithID(d.ID), github.WithAPIBase(cfg.Evidence.GitHubAPI))
		case config.KindStatic:
			det = staticDetective(d)
		default:
			return nil, fmt.Errorf("%w: detective %q: unknown kind %q", config.ErrInvalid, d.ID, d.Kind)
		}
		if err := reg.Register(det); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func staticDetective(d config.Detective) detective.Detective {
	inputs := make([]detective.Name, len(d.Inputs))
	for i, in := range d.Inputs {
		inputs[i] = detective.Name(in)
	}
	values := make(map[detective.Name]detective.Record, len(d.Values))
	for name, v := range d.Values {
		values[detective.Name(name)] = detective.Record{
			Value:       v.Value,
			Confidence:  detective.Confidence(v.Confidence),
			Explanation: v.Explanation,
		}
	}
	return static.New(d.ID, inputs, values)
}

// NewHTTPSource builds the HTTP evidence source from the evidence section.
func NewHTTPSource(ev config.Evidence, logger *slog.Logger) (*evidence.HTTPSource, error) {
	opts := []evidence.Option{
		evidence.WithTimeout(ev.Timeout.Std()),
		evidence.WithMaxBodyBytes(ev.MaxBodyBytes),
	}
	if logger != nil {
		opts = append(opts, evidence.WithLogger(logger))
	}
	if ev.Token != "" {
		opts = append(opts, evidence.WithToken(ev.Token))
	}
	if ev.UserAgent != "" {
		opts = append(opts, evidence.WithUserAgent(ev.UserAgent))
	}
	if ev.Accept != "" {
		opts = append(opts, evidence.WithAccept(ev.Accept))
	}
	if ev.RatePerSecond > 0 {
		opts = append(opts, evidence.WithRateLimit(rate.NewLimiter(rate.Limit(ev.RatePerSecond), ev.Burst)))
	}
	return evidence.NewHTTPSource(opts...)
}

// Infer seeds the store at the configured seed confidence and runs the
// engine, bounded by engine.run_timeout when set.
func (r *Runtime) Infer(ctx context.Context, seed map[detective.Name]string) (*detective.Result, error) {
	return r.InferWithin(ctx, seed, r.Config.Engine.RunTimeout.Std())
}

// InferWithin is Infer with an explicit run timeout; zero means none.
func (r *Runtime) InferWithin(ctx context.Context, seed map[detective.Name]string, timeout time.Duration) (*detective.Result, error) {
	for n := range seed {
		if !n.Valid() {
			return nil, fmt.Errorf("seed: %w: %q", detective.ErrUnknownAttribute, n)
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	snap := detective.Seed(seed, detective.Confidence(r.Config.SeedConfidence))
	return r.Engine.Run(ctx, r.Source, snap)
}

func (r *Runtime) Descriptors() []detective.Descriptor { return r.Engine.Descriptors() }

func (r *Runtime) Plan() detective.Plan { return r.Engine.Plan() }
