package detective

import "context"

// EvidenceSource retrieves the body at a URL. An empty string means no data:
// network errors, non-2xx statuses and timeouts are all reported that way,
// never as an error. Implementations bound each fetch with their own timeout.
type EvidenceSource interface {
	Get(ctx context.Context, url string) string
}

// EvidenceFunc adapts a plain function to the EvidenceSource interface.
type EvidenceFunc func(ctx context.Context, url string) string

func (f EvidenceFunc) Get(ctx context.Context, url string) string { return f(ctx, url) }

// Detective analyzes evidence and known attributes and proposes values for
// the attributes it declares as outputs.
//
// Analyze must not modify current. A returned error is logged and treated as
// an empty proposal set; it never aborts the run. Missing or malformed
// evidence should simply leave the affected attribute out of the proposals.
type Detective interface {
	ID() string
	Inputs() []Name
	Outputs() []Name
	Analyze(ctx context.Context, evidence EvidenceSource, current Snapshot) (Proposals, error)
}

// Descriptor is the registry's view of a detective. Ordinal is the
// registration position and breaks ties between equal-confidence proposals:
// lower ordinals merge first and therefore win.
type Descriptor struct {
	ID      string `json:"id"`
	Ordinal int    `json:"ordinal"`
	Inputs  []Name `json:"inputs"`
	Outputs []Name `json:"outputs"`
}

// produces reports whether n is among the declared outputs.
func (d Descriptor) produces(n Name) bool {
	for _, o := range d.Outputs {
		if o == n {
			return true
		}
	}
	return false
}

// AnalyzeFunc is the signature of FuncDetective's analysis function.
type AnalyzeFunc func(ctx context.Context, evidence EvidenceSource, current Snapshot) (Proposals, error)

// FuncDetective wraps a function as a Detective.
//
// Example:
//
//	d := detective.NewFunc("homepage", []detective.Name{detective.NameRepoURL},
//	    []detective.Name{detective.NameHomepageURL}, analyze)
type FuncDetective struct {
	id      string
	inputs  []Name
	outputs []Name
	fn      AnalyzeFunc
}

// NewFunc creates a detective from a function.
func NewFunc(id string, inputs, outputs []Name, fn AnalyzeFunc) *FuncDetective {
	return &FuncDetective{id: id, inputs: inputs, outputs: outputs, fn: fn}
}

func (d *FuncDetective) ID() string      { return d.id }
func (d *FuncDetective) Inputs() []Name  { return d.inputs }
func (d *FuncDetective) Outputs() []Name { return d.outputs }

func (d *FuncDetective) Analyze(ctx context.Context, evidence EvidenceSource, current Snapshot) (Proposals, error) {
	if d.fn == nil {
		return nil, nil
	}
	return d.fn(ctx, evidence, current)
}
