package detective

import "time"

// RunRecord describes one invocation of a detective.
type RunRecord struct {
	Pass      int           `json:"pass"`
	Detective string        `json:"detective"`
	Proposed  []Name        `json:"proposed,omitempty"`
	Changed   []Name        `json:"changed,omitempty"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Result is the outcome of one run.
//
// Partial is set when the run stopped early, either because its context
// was done or because it did not converge; Records then holds everything
// merged before the stop.
type Result struct {
	RunID    string
	Records  Snapshot
	Attempts []Attempt
	Runs     []RunRecord
	Skipped  []string
	Passes   int
	Partial  bool
	Duration time.Duration
}

// Project drops confidence and explanation, leaving name → value.
func Project(s Snapshot) map[Name]string {
	out := make(map[Name]string, s.Len())
	for n, r := range s.records {
		out[n] = r.Value
	}
	return out
}

// ProjectRecords returns the full records of s, keeping provenance.
func ProjectRecords(s Snapshot) map[Name]Record {
	return s.Records()
}

// derived returns the records not supplied as seeds.
func (r *Result) derived() Snapshot {
	out := make(map[Name]Record, r.Records.Len())
	for n, rec := range r.Records.records {
		if rec.Source == SeedSource {
			continue
		}
		out[n] = rec
	}
	return Snapshot{records: out}
}

// Values returns name → value for attributes derived by detectives.
// Seeds are excluded, so a run that derives nothing yields an empty map.
func (r *Result) Values() map[Name]string {
	return Project(r.derived())
}

// Evidence is like Values but keeps the full records.
func (r *Result) Evidence() map[Name]Record {
	return ProjectRecords(r.derived())
}

// All returns every record, seeds included.
func (r *Result) All() map[Name]Record {
	return ProjectRecords(r.Records)
}

// Output is the JSON shape handed to downstream consumers.
type Output struct {
	RunID      string          `json:"run_id"`
	Attributes map[Name]Record `json:"attributes"`
	Partial    bool            `json:"partial"`
	Passes     int             `json:"passes"`
	Skipped    []string        `json:"skipped,omitempty"`
}

// Output projects r for serialization. includeSeeds selects All over
// Evidence.
func (r *Result) Output(includeSeeds bool) Output {
	attrs := r.Evidence()
	if includeSeeds {
		attrs = r.All()
	}
	return Output{
		RunID:      r.RunID,
		Attributes: attrs,
		Partial:    r.Partial,
		Passes:     r.Passes,
		Skipped:    r.Skipped,
	}
}
