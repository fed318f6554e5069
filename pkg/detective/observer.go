package detective

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventType classifies run events for filtering and routing.
type EventType string

const (
	EventRunStart         EventType = "run_start"
	EventPassStart        EventType = "pass_start"
	EventDetectiveStart   EventType = "detective_start"
	EventDetectiveDone    EventType = "detective_done"
	EventProposalRejected EventType = "proposal_rejected"
	EventMerge            EventType = "merge"
	EventPassDone         EventType = "pass_done"
	EventRunDone          EventType = "run_done"
	EventRunError         EventType = "run_error"
)

// Event is a single observation from a run. Fields that do not apply to the
// event type are left at their zero value.
type Event struct {
	Type      EventType
	RunID     string
	Pass      int
	Detective string
	Attribute Name
	Accepted  bool
	Reason    string
	Changed   []Name
	Elapsed   time.Duration
	Error     error
}

// Observer receives events during a run. Events from detectives of the same
// pass may arrive concurrently.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans out events to multiple observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, obs := range m {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
}

// LogObserver writes run events as structured slog lines. Per-detective and
// merge events go to debug; run errors and isolated detective failures warn.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("event", string(e.Type)),
	}
	if e.RunID != "" {
		attrs = append(attrs, slog.String("run_id", e.RunID))
	}
	if e.Pass > 0 {
		attrs = append(attrs, slog.Int("pass", e.Pass))
	}
	if e.Detective != "" {
		attrs = append(attrs, slog.String("detective", e.Detective))
	}
	if e.Attribute != "" {
		attrs = append(attrs, slog.String("attribute", string(e.Attribute)))
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	if len(e.Changed) > 0 {
		changed := make([]string, len(e.Changed))
		for i, n := range e.Changed {
			changed[i] = string(n)
		}
		attrs = append(attrs, slog.Any("changed", changed))
	}
	if e.Elapsed > 0 {
		attrs = append(attrs, slog.Duration("elapsed", e.Elapsed))
	}
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
	}

	level := slog.LevelInfo
	switch {
	case e.Error != nil:
		level = slog.LevelWarn
	case e.Type == EventDetectiveStart, e.Type == EventDetectiveDone,
		e.Type == EventMerge, e.Type == EventProposalRejected:
		level = slog.LevelDebug
	}
	logger.LogAttrs(context.Background(), level, "run", attrs...)
}

// TraceCollector accumulates run events in memory for post-run analysis.
// Safe for concurrent use.
type TraceCollector struct {
	mu     sync.Mutex
	events []Event
}

func (t *TraceCollector) OnEvent(e Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of all collected events.
func (t *TraceCollector) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Reset clears collected events.
func (t *TraceCollector) Reset() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}

// EventsOfType returns only events matching the given type.
func (t *TraceCollector) EventsOfType(typ EventType) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Event
	for _, e := range t.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func emit(obs Observer, e Event) {
	if obs != nil {
		obs.OnEvent(e)
	}
}
