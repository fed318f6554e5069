package format_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jakim54/cii-best-practices-badge/internal/format"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Attribute", "Value")
	tb.Row("license", "MIT")
	out := tb.String()

	if !strings.Contains(out, "license") || !strings.Contains(out, "MIT") {
		t.Errorf("expected data in output:\n%s", out)
	}
	// StyleLight uses box-drawing characters
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_Table(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Pass", "Runs")
	tb.Row(1, 2)
	tb.Align(format.AlignRight, 1, 2)
	out := tb.String()

	if !strings.Contains(out, "| Pass") || !strings.Contains(out, "---:") {
		t.Errorf("expected right-aligned markdown table:\n%s", out)
	}
}

func TestASCII_Wrap(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Explanation")
	tb.Row("GitHub API license analysis")
	tb.Wrap(1, 10)
	if out := tb.String(); strings.Contains(out, "GitHub API license analysis") {
		t.Errorf("column not wrapped:\n%s", out)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]format.Mode{"": format.ASCII, "table": format.ASCII, "markdown": format.Markdown} {
		got, err := format.ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := format.ParseMode("html"); err == nil {
		t.Error("ParseMode(html) accepted")
	}
}

func sampleResult() *detective.Result {
	records := map[detective.Name]detective.Record{
		detective.NameRepoURL: {Value: "https://github.com/o/r", Confidence: 5, Explanation: "supplied seed", Source: detective.SeedSource},
		detective.NameName:    {Value: "Best Practices Badge", Confidence: 3, Explanation: "GitHub description", Source: "github_basic"},
		detective.NameLicense: {Value: "MIT", Confidence: 3, Explanation: "GitHub API license analysis", Source: "github_basic"},
	}
	return &detective.Result{
		RunID:    "run-1",
		Records:  detective.NewSnapshot(records),
		Passes:   1,
		Runs:     []detective.RunRecord{{Pass: 1, Detective: "github_basic", Proposed: []detective.Name{detective.NameName, detective.NameLicense}}},
		Duration: 1500 * time.Millisecond,
	}
}

func TestResult_ExcludesSeedsByDefault(t *testing.T) {
	out := format.Result(format.ASCII, sampleResult(), false)
	for _, want := range []string{"Best Practices Badge", "MIT", "●●●○○ medium", "GitHub basic", "License (license)", "run run-1: 1 pass(es)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "https://github.com/o/r") {
		t.Errorf("seed rendered without includeSeeds:\n%s", out)
	}
	if i, j := strings.Index(out, "name"), strings.Index(out, "license"); i < 0 || j < i {
		t.Errorf("attributes not in vocabulary order:\n%s", out)
	}

	if out := format.Result(format.Markdown, sampleResult(), true); !strings.Contains(out, "https://github.com/o/r") {
		t.Errorf("seed missing with includeSeeds:\n%s", out)
	}
}

func TestResult_EmptyAndPartial(t *testing.T) {
	res := &detective.Result{RunID: "r", Partial: true, Skipped: []string{"github_basic"}}
	out := format.Result(format.ASCII, res, false)
	for _, want := range []string{"no attributes inferred", "skipped: github_basic", "[PARTIAL]"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDetectives(t *testing.T) {
	descs := []detective.Descriptor{{ID: "github_basic", Inputs: []detective.Name{detective.NameRepoURL}, Outputs: []detective.Name{detective.NameName, detective.NameLicense}}}
	plan := detective.Plan{Stages: [][]detective.Descriptor{descs}}
	out := format.Detectives(format.Markdown, descs, plan)
	if !strings.Contains(out, "github_basic") || !strings.Contains(out, "name, license") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if runs := format.Runs(format.ASCII, sampleResult().Runs); !strings.Contains(runs, "github_basic") {
		t.Errorf("unexpected runs output:\n%s", runs)
	}
}

func TestAttempts_OnlyRejected(t *testing.T) {
	attempts := []detective.Attempt{
		{Pass: 1, Name: detective.NameLicense, Record: detective.Record{Value: "MIT", Confidence: 3, Source: "first"}, Accepted: true},
		{Pass: 1, Name: detective.NameLicense, Record: detective.Record{Value: "BSD", Confidence: 3, Source: "second"}, Reason: detective.ReasonTie},
	}
	out := format.Attempts(format.ASCII, attempts)
	if strings.Contains(out, "MIT") || !strings.Contains(out, "BSD") || !strings.Contains(out, "tie") {
		t.Errorf("unexpected attempts output:\n%s", out)
	}
}

// --- Helper tests ---

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{250 * time.Millisecond, "250ms"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tc := range tests {
		if got := format.FmtDuration(tc.in); got != tc.want {
			t.Errorf("FmtDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abcdef", 3, "abc"},
	}
	for _, tc := range tests {
		if got := format.Truncate(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestStars(t *testing.T) {
	if got := format.Stars(3); got != "●●●○○" {
		t.Errorf("Stars(3) = %q", got)
	}
	if got := format.Stars(9); got != "9?" {
		t.Errorf("Stars(9) = %q", got)
	}
	if format.BoolMark(true) != "✓" || format.BoolMark(false) != "✗" {
		t.Error("BoolMark mismatch")
	}
}
