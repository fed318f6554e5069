package detective

import (
	"sync"
)

// Reasons recorded on attempts that did not change the store.
const (
	ReasonLowerConfidence = "lower confidence than stored value"
	ReasonTie             = "equal confidence; earlier value kept"
	ReasonUndeclared      = "attribute not declared as output"
	ReasonOutOfRange      = "confidence out of range"
	ReasonUnknown         = "attribute not in vocabulary"
)

// Merge combines proposals into current and returns the updated snapshot plus
// the names whose record changed. current is not modified.
//
// An absent attribute is adopted. A present one is replaced only when the
// proposed confidence is strictly greater; equal confidence keeps the stored
// record. A non-empty source overwrites the Source of every proposed record.
func Merge(current Snapshot, source string, proposals Proposals) (Snapshot, []Name) {
	next, changed, _ := merge(current, source, proposals)
	return next, changed
}

// outcome is the per-name result of a merge, in vocabulary order.
type outcome struct {
	name     Name
	record   Record
	accepted bool
	reason   string
}

func merge(current Snapshot, source string, proposals Proposals) (Snapshot, []Name, []outcome) {
	if len(proposals) == 0 {
		return current, nil, nil
	}

	names := make([]Name, 0, len(proposals))
	for n := range proposals {
		names = append(names, n)
	}
	sortNames(names)

	records := current.Records()
	var changed []Name
	outcomes := make([]outcome, 0, len(names))
	for _, n := range names {
		proposed := proposals[n]
		if source != "" {
			proposed.Source = source
		}
		o := outcome{name: n, record: proposed}

		stored, ok := records[n]
		switch {
		case !ok, proposed.Confidence > stored.Confidence:
			records[n] = proposed
			changed = append(changed, n)
			o.accepted = true
		case proposed.Confidence == stored.Confidence:
			o.reason = ReasonTie
		default:
			o.reason = ReasonLowerConfidence
		}
		outcomes = append(outcomes, o)
	}

	if len(changed) == 0 {
		return current, nil, outcomes
	}
	return Snapshot{records: records}, changed, outcomes
}

// Attempt records one proposal seen during a run, accepted or not.
type Attempt struct {
	Pass     int    `json:"pass"`
	Name     Name   `json:"name"`
	Record   Record `json:"record"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Store holds the attribute records of one run. Only the scheduler's merge
// step mutates it; detectives read snapshots.
//
// Thread Safety: safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	current  Snapshot
	attempts []Attempt
}

// NewStore returns a store seeded with seed.
func NewStore(seed Snapshot) *Store {
	return &Store{current: NewSnapshot(seed.records)}
}

// Snapshot returns the current records. The result is unaffected by later
// merges.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Merge applies proposals from source and records every attempt. It returns
// the names that changed.
func (s *Store) Merge(pass int, source string, proposals Proposals) []Name {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, outcomes := merge(s.current, source, proposals)
	s.current = next
	for _, o := range outcomes {
		s.attempts = append(s.attempts, Attempt{
			Pass:     pass,
			Name:     o.name,
			Record:   o.record,
			Accepted: o.accepted,
			Reason:   o.reason,
		})
	}
	return changed
}

// Reject records a proposal that was refused before merging.
func (s *Store) Reject(pass int, source string, n Name, r Record, reason string) {
	r.Source = source
	s.mu.Lock()
	s.attempts = append(s.attempts, Attempt{Pass: pass, Name: n, Record: r, Reason: reason})
	s.mu.Unlock()
}

// Attempts returns a copy of the audit trail in merge order.
func (s *Store) Attempts() []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}
