package detective

// SeedSource is the Source stamped on externally supplied seed records.
const SeedSource = "seed"

// Record is the current best evidence for one attribute.
// Explanation is for humans and is never parsed.
type Record struct {
	Value       string     `json:"value"`
	Confidence  Confidence `json:"confidence"`
	Explanation string     `json:"explanation"`
	Source      string     `json:"source,omitempty"`
}

// Proposals maps attribute names to the values a detective proposes.
// Attributes a detective could not determine are absent.
type Proposals map[Name]Record

// Snapshot is an immutable view of the attribute store. The zero value is
// an empty snapshot.
type Snapshot struct {
	records map[Name]Record
}

// NewSnapshot copies records into a new Snapshot.
func NewSnapshot(records map[Name]Record) Snapshot {
	cp := make(map[Name]Record, len(records))
	for n, r := range records {
		cp[n] = r
	}
	return Snapshot{records: cp}
}

// Seed builds the initial snapshot of a run from caller-supplied values.
// Empty values are skipped.
func Seed(values map[Name]string, confidence Confidence) Snapshot {
	records := make(map[Name]Record, len(values))
	for n, v := range values {
		if v == "" {
			continue
		}
		records[n] = Record{
			Value:       v,
			Confidence:  confidence,
			Explanation: "supplied seed",
			Source:      SeedSource,
		}
	}
	return Snapshot{records: records}
}

// Get returns the record for n.
func (s Snapshot) Get(n Name) (Record, bool) {
	r, ok := s.records[n]
	return r, ok
}

// Has reports whether n has a record.
func (s Snapshot) Has(n Name) bool {
	_, ok := s.records[n]
	return ok
}

// Value returns the value for n, or "" when absent.
func (s Snapshot) Value(n Name) string {
	return s.records[n].Value
}

// Len returns the number of attributes held.
func (s Snapshot) Len() int { return len(s.records) }

// Names returns the held attribute names in vocabulary order.
func (s Snapshot) Names() []Name {
	names := make([]Name, 0, len(s.records))
	for n := range s.records {
		names = append(names, n)
	}
	sortNames(names)
	return names
}

// Records returns a copy of the held records.
func (s Snapshot) Records() map[Name]Record {
	cp := make(map[Name]Record, len(s.records))
	for n, r := range s.records {
		cp[n] = r
	}
	return cp
}

// HasAll reports whether every name in names is present.
func (s Snapshot) HasAll(names []Name) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}
