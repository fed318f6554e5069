package format

import (
	"fmt"
	"strings"

	"github.com/jakim54/cii-best-practices-badge/internal/display"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// maxValueWidth bounds the value column so long descriptions stay readable.
const maxValueWidth = 60

const maxExplanationWidth = 40

// Attributes renders records in vocabulary order.
func Attributes(m Mode, records map[detective.Name]detective.Record) string {
	tb := NewTable(m)
	tb.Header("Attribute", "Value", "Confidence", "Source", "Explanation")
	for _, n := range detective.Vocabulary() {
		r, ok := records[n]
		if !ok {
			continue
		}
		tb.Row(display.AttributeWithCode(n), Truncate(r.Value, maxValueWidth),
			Stars(r.Confidence)+" "+display.Confidence(r.Confidence), display.Source(r.Source), r.Explanation)
	}
	tb.Align(AlignCenter, 3)
	tb.Wrap(5, maxExplanationWidth)
	return tb.String()
}

// Result renders the attributes of res followed by a one-line run summary.
// includeSeeds selects res.All over res.Evidence.
func Result(m Mode, res *detective.Result, includeSeeds bool) string {
	records := res.Evidence()
	if includeSeeds {
		records = res.All()
	}

	var b strings.Builder
	if len(records) == 0 {
		b.WriteString("no attributes inferred\n")
	} else {
		b.WriteString(Attributes(m, records))
		b.WriteString("\n")
	}
	b.WriteString(Summary(res))
	b.WriteString("\n")
	return b.String()
}

// Summary is a one-line description of a run.
func Summary(res *detective.Result) string {
	s := fmt.Sprintf("run %s: %d pass(es), %d detective run(s), %s",
		res.RunID, res.Passes, len(res.Runs), FmtDuration(res.Duration))
	if len(res.Skipped) > 0 {
		s += ", skipped: " + strings.Join(res.Skipped, ", ")
	}
	if res.Partial {
		s += " [PARTIAL]"
	}
	return s
}

// Runs renders the per-detective invocations of a run.
func Runs(m Mode, runs []detective.RunRecord) string {
	tb := NewTable(m)
	tb.Header("Pass", "Detective", "Proposed", "Changed", "Elapsed", "Error")
	for _, r := range runs {
		tb.Row(r.Pass, r.Detective, Names(r.Proposed), Names(r.Changed), FmtDuration(r.Elapsed), r.Error)
	}
	tb.Align(AlignRight, 1)
	return tb.String()
}

// Attempts renders the proposals that did not change the store.
func Attempts(m Mode, attempts []detective.Attempt) string {
	tb := NewTable(m)
	tb.Header("Pass", "Detective", "Attribute", "Value", "Confidence", "Reason")
	for _, a := range attempts {
		if a.Accepted {
			continue
		}
		tb.Row(a.Pass, a.Record.Source, display.Attribute(a.Name), Truncate(a.Record.Value, maxValueWidth),
			int(a.Record.Confidence), display.Reason(a.Reason))
	}
	tb.Align(AlignRight, 1, 5)
	return tb.String()
}

// Detectives renders the registry together with each detective's stage in
// the plan.
func Detectives(m Mode, descs []detective.Descriptor, plan detective.Plan) string {
	tb := NewTable(m)
	tb.Header("#", "ID", "Inputs", "Outputs", "Stage")
	for _, d := range descs {
		tb.Row(d.Ordinal, d.ID, Names(d.Inputs), Names(d.Outputs), plan.Stage(d.ID))
	}
	tb.Align(AlignRight, 1, 5)
	return tb.String()
}
