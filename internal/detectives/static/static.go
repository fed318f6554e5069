// Package static provides a detective that proposes fixed values once its
// inputs are known. Operators declare these in configuration to pin
// attributes for a deployment.
package static

import (
	"context"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// DefaultExplanation is used for values declared without one.
const DefaultExplanation = "configured value"

// Detective proposes the same records on every run.
type Detective struct {
	id      string
	inputs  []detective.Name
	outputs []detective.Name
	values  map[detective.Name]detective.Record
}

// New returns a detective proposing values. Outputs are the keys of values
// in vocabulary order; names outside the vocabulary are kept so that the
// registry can reject them.
func New(id string, inputs []detective.Name, values map[detective.Name]detective.Record) *Detective {
	d := &Detective{
		id:     id,
		inputs: append([]detective.Name(nil), inputs...),
		values: make(map[detective.Name]detective.Record, len(values)),
	}
	for n, r := range values {
		if r.Explanation == "" {
			r.Explanation = DefaultExplanation
		}
		d.values[n] = r
	}
	for _, n := range detective.Vocabulary() {
		if _, ok := d.values[n]; ok {
			d.outputs = append(d.outputs, n)
		}
	}
	for n := range d.values {
		if !n.Valid() {
			d.outputs = append(d.outputs, n)
		}
	}
	return d
}

func (d *Detective) ID() string                { return d.id }
func (d *Detective) Inputs() []detective.Name  { return d.inputs }
func (d *Detective) Outputs() []detective.Name { return d.outputs }

func (d *Detective) Analyze(context.Context, detective.EvidenceSource, detective.Snapshot) (detective.Proposals, error) {
	out := make(detective.Proposals, len(d.values))
	for n, r := range d.values {
		out[n] = r
	}
	return out, nil
}
