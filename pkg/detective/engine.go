package detective

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Defaults applied by NewEngine.
const (
	DefaultMaxPasses   = 10
	DefaultParallelism = 4
)

// Reinvocation decides whether a detective may run more than once per run.
type Reinvocation int

const (
	// RunOnce runs each detective at most once, in the first pass in which
	// all of its inputs are present.
	RunOnce Reinvocation = iota

	// RerunOnInputChange also runs a detective again when the value or
	// confidence of any of its inputs changed since its last run.
	RerunOnInputChange
)

func (r Reinvocation) String() string {
	switch r {
	case RunOnce:
		return "once"
	case RerunOnInputChange:
		return "on_input_change"
	default:
		return fmt.Sprintf("Reinvocation(%d)", int(r))
	}
}

// ParseReinvocation accepts the String forms of the policies.
func ParseReinvocation(s string) (Reinvocation, error) {
	switch s {
	case "", "once":
		return RunOnce, nil
	case "on_input_change":
		return RerunOnInputChange, nil
	default:
		return RunOnce, fmt.Errorf("unknown reinvocation policy %q", s)
	}
}

type engineConfig struct {
	maxPasses   int
	parallelism int
	reinvoke    Reinvocation
	timeout     time.Duration
	observers   []Observer
	logger      *slog.Logger
	memo        bool
}

// Option configures an Engine.
type Option func(*engineConfig) error

// WithMaxPasses bounds the number of passes before a run is declared
// non-convergent.
func WithMaxPasses(n int) Option {
	return func(c *engineConfig) error {
		if n < 1 {
			return fmt.Errorf("max passes must be positive, got %d", n)
		}
		c.maxPasses = n
		return nil
	}
}

// WithParallelism bounds how many detectives of a pass run at once.
func WithParallelism(n int) Option {
	return func(c *engineConfig) error {
		if n < 1 {
			return fmt.Errorf("parallelism must be positive, got %d", n)
		}
		c.parallelism = n
		return nil
	}
}

// WithReinvocation selects the re-run policy.
func WithReinvocation(r Reinvocation) Option {
	return func(c *engineConfig) error {
		if r != RunOnce && r != RerunOnInputChange {
			return fmt.Errorf("unknown reinvocation policy %d", int(r))
		}
		c.reinvoke = r
		return nil
	}
}

// WithDetectiveTimeout bounds each Analyze call. Zero means no bound beyond
// the run context.
func WithDetectiveTimeout(d time.Duration) Option {
	return func(c *engineConfig) error {
		if d < 0 {
			return fmt.Errorf("detective timeout must not be negative, got %s", d)
		}
		c.timeout = d
		return nil
	}
}

// WithObserver adds an observer for run events.
func WithObserver(o Observer) Option {
	return func(c *engineConfig) error {
		if o != nil {
			c.observers = append(c.observers, o)
		}
		return nil
	}
}

// WithLogger sets the logger used for run events.
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = l
		return nil
	}
}

// WithoutMemo disables per-run fetch deduplication.
func WithoutMemo() Option {
	return func(c *engineConfig) error {
		c.memo = false
		return nil
	}
}

// Engine schedules registered detectives over an attribute store.
// An Engine holds no per-run state and may serve concurrent runs.
type Engine struct {
	detectives []Detective
	descs      []Descriptor
	plan       Plan
	cycle      error
	edges      []Edge
	cfg        engineConfig
	observer   Observer
}

// NewEngine builds the dependency plan of reg and returns an engine.
// Dependency cycles are allowed: RunOnce lets each detective on a cycle run
// once, and under RerunOnInputChange the pass limit bounds a cycle that keeps
// changing its inputs (ErrNoConvergence). Cycle reports the cycle found.
func NewEngine(reg *Registry, opts ...Option) (*Engine, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, ErrEmptyRegistry
	}

	cfg := engineConfig{
		maxPasses:   DefaultMaxPasses,
		parallelism: DefaultParallelism,
		reinvoke:    RunOnce,
		memo:        true,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("engine option: %w", err)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	descs := reg.Descriptors()
	g := NewGraph(descs)
	plan, cycle := g.Plan()
	if cycle != nil {
		cfg.logger.Info("dependency cycle between detectives", "cycle", cycle.Error(), "reinvocation", cfg.reinvoke.String())
	}

	return &Engine{
		detectives: append([]Detective(nil), reg.detectives...),
		descs:      descs,
		plan:       plan,
		cycle:      cycle,
		edges:      g.Edges(),
		cfg:        cfg,
		observer:   append(MultiObserver{&LogObserver{Logger: cfg.logger}}, cfg.observers...),
	}, nil
}

// Descriptors returns the registered detectives in ordinal order.
func (e *Engine) Descriptors() []Descriptor {
	out := make([]Descriptor, len(e.descs))
	copy(out, e.descs)
	return out
}

// Plan returns the topological plan computed at build time.
func (e *Engine) Plan() Plan { return e.plan }

// Cycle returns the *CycleError found at build time, or nil.
func (e *Engine) Cycle() error { return e.cycle }

// Edges returns the dependency edges.
func (e *Engine) Edges() []Edge { return append([]Edge(nil), e.edges...) }

// MaxPasses returns the configured pass limit.
func (e *Engine) MaxPasses() int { return e.cfg.maxPasses }

// slot holds one detective's output for a pass.
type slot struct {
	idx       int
	proposals Proposals
	err       error
	elapsed   time.Duration
}

// Run executes detectives in passes until no detective is ready.
//
// Each pass reads the snapshot taken at its start; its merges are applied in
// ordinal order once every detective of the pass has returned. When ctx is
// done mid-pass, that pass is discarded and the result is marked partial
// with ctx.Err(). When detectives are still ready after MaxPasses, the
// partial result is returned with ErrNoConvergence.
func (e *Engine) Run(ctx context.Context, source EvidenceSource, seed Snapshot) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	if source == nil {
		source = EvidenceFunc(func(context.Context, string) string { return "" })
	}
	if e.cfg.memo {
		source = Memoize(source)
	}

	store := NewStore(seed)
	res := &Result{RunID: runID}
	ran := make([]bool, len(e.descs))
	fingerprints := make([]string, len(e.descs))

	emit(e.observer, Event{Type: EventRunStart, RunID: runID})

	var runErr error
	for {
		snap := store.Snapshot()
		ready := e.ready(snap, ran, fingerprints)
		if len(ready) == 0 {
			break
		}
		if res.Passes >= e.cfg.maxPasses {
			ids := make([]string, len(ready))
			for i, idx := range ready {
				ids[i] = e.descs[idx].ID
			}
			runErr = fmt.Errorf("%w: %d passes, still ready: %s",
				ErrNoConvergence, res.Passes, strings.Join(ids, ", "))
			res.Partial = true
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			res.Partial = true
			break
		}

		pass := res.Passes + 1
		passStart := time.Now()
		emit(e.observer, Event{Type: EventPassStart, RunID: runID, Pass: pass})

		slots := e.runPass(ctx, runID, pass, source, snap, ready)
		if err := ctx.Err(); err != nil {
			runErr = err
			res.Partial = true
			break
		}
		res.Passes = pass

		var passChanged []Name
		for _, s := range slots {
			d := e.descs[s.idx]
			ran[s.idx] = true
			fingerprints[s.idx] = fingerprint(snap, d.Inputs)

			rec := RunRecord{Pass: pass, Detective: d.ID, Elapsed: s.elapsed}
			if s.err != nil {
				rec.Error = s.err.Error()
			}
			accepted := e.screen(store, runID, pass, d, s.proposals)
			for n := range s.proposals {
				rec.Proposed = append(rec.Proposed, n)
			}
			sortNames(rec.Proposed)

			changed := store.Merge(pass, d.ID, accepted)
			rec.Changed = changed
			passChanged = append(passChanged, changed...)
			res.Runs = append(res.Runs, rec)
			if len(accepted) > 0 {
				emit(e.observer, Event{Type: EventMerge, RunID: runID, Pass: pass, Detective: d.ID, Changed: changed})
			}
		}
		emit(e.observer, Event{
			Type: EventPassDone, RunID: runID, Pass: pass,
			Changed: passChanged, Elapsed: time.Since(passStart),
		})
	}

	for i, d := range e.descs {
		if !ran[i] {
			res.Skipped = append(res.Skipped, d.ID)
		}
	}
	res.Records = store.Snapshot()
	res.Attempts = store.Attempts()
	res.Duration = time.Since(start)

	if runErr != nil {
		emit(e.observer, Event{Type: EventRunError, RunID: runID, Pass: res.Passes, Elapsed: res.Duration, Error: runErr})
		return res, runErr
	}
	emit(e.observer, Event{Type: EventRunDone, RunID: runID, Pass: res.Passes, Elapsed: res.Duration})
	return res, nil
}

// ready returns, in ordinal order, the detectives eligible for the next pass.
func (e *Engine) ready(snap Snapshot, ran []bool, fingerprints []string) []int {
	var out []int
	for i, d := range e.descs {
		if !snap.HasAll(d.Inputs) {
			continue
		}
		if ran[i] {
			if e.cfg.reinvoke == RunOnce || fingerprints[i] == fingerprint(snap, d.Inputs) {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}

// runPass runs the ready detectives concurrently and returns their outputs
// in the order of ready.
func (e *Engine) runPass(ctx context.Context, runID string, pass int, source EvidenceSource, snap Snapshot, ready []int) []slot {
	slots := make([]slot, len(ready))

	var g errgroup.Group
	g.SetLimit(e.cfg.parallelism)
	for i, idx := range ready {
		g.Go(func() error {
			id := e.descs[idx].ID
			emit(e.observer, Event{Type: EventDetectiveStart, RunID: runID, Pass: pass, Detective: id})

			dctx := ctx
			if e.cfg.timeout > 0 {
				var cancel context.CancelFunc
				dctx, cancel = context.WithTimeout(ctx, e.cfg.timeout)
				defer cancel()
			}

			began := time.Now()
			proposals, err := analyze(dctx, e.detectives[idx], source, snap)
			slots[i] = slot{idx: idx, proposals: proposals, err: err, elapsed: time.Since(began)}

			emit(e.observer, Event{
				Type: EventDetectiveDone, RunID: runID, Pass: pass, Detective: id,
				Elapsed: slots[i].elapsed, Error: err,
			})
			return nil
		})
	}
	_ = g.Wait()
	return slots
}

// analyze isolates a detective: an error or panic becomes an empty proposal
// set plus the error.
func analyze(ctx context.Context, d Detective, source EvidenceSource, snap Snapshot) (p Proposals, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("detective %s panicked: %v", d.ID(), r)
		}
	}()
	p, err = d.Analyze(ctx, source, snap)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// screen drops proposals the detective is not allowed to make and records
// them as rejected attempts.
func (e *Engine) screen(store *Store, runID string, pass int, d Descriptor, proposals Proposals) Proposals {
	accepted := make(Proposals, len(proposals))
	names := make([]Name, 0, len(proposals))
	for n := range proposals {
		names = append(names, n)
	}
	sortNames(names)

	for _, n := range names {
		r := proposals[n]
		reason := ""
		switch {
		case !n.Valid():
			reason = ReasonUnknown
		case !d.produces(n):
			reason = ReasonUndeclared
		case !r.Confidence.Valid():
			reason = ReasonOutOfRange
		}
		if reason != "" {
			store.Reject(pass, d.ID, n, r, reason)
			emit(e.observer, Event{
				Type: EventProposalRejected, RunID: runID, Pass: pass,
				Detective: d.ID, Attribute: n, Reason: reason,
			})
			continue
		}
		accepted[n] = r
	}
	return accepted
}

// fingerprint identifies the input records a detective saw.
func fingerprint(snap Snapshot, inputs []Name) string {
	var b strings.Builder
	for _, n := range inputs {
		r, _ := snap.Get(n)
		fmt.Fprintf(&b, "%s=%d:%s\x00", n, r.Confidence, r.Value)
	}
	return b.String()
}
