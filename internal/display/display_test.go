package display

import (
	"testing"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

func TestAttribute(t *testing.T) {
	cases := []struct {
		name       detective.Name
		want, full string
	}{
		{detective.NameRepoURL, "Repository URL", "Repository URL (repo_url)"},
		{detective.NameLicense, "License", "License (license)"},
		{"licence", "licence", "licence"},
	}
	for _, tc := range cases {
		if got := Attribute(tc.name); got != tc.want {
			t.Errorf("Attribute(%q) = %q, want %q", tc.name, got, tc.want)
		}
		if got := AttributeWithCode(tc.name); got != tc.full {
			t.Errorf("AttributeWithCode(%q) = %q, want %q", tc.name, got, tc.full)
		}
	}
}

func TestAttribute_CoversVocabulary(t *testing.T) {
	for _, n := range detective.Vocabulary() {
		if Attribute(n) == string(n) {
			t.Errorf("no label for %q", n)
		}
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(3); got != "medium" {
		t.Errorf("Confidence(3) = %q", got)
	}
	if got := Confidence(9); got != "invalid" {
		t.Errorf("Confidence(9) = %q", got)
	}
}

func TestSourceAndReason(t *testing.T) {
	if got := Source(detective.SeedSource); got != "Supplied" {
		t.Errorf("Source(seed) = %q", got)
	}
	if got := Source("custom"); got != "custom" {
		t.Errorf("Source(custom) = %q", got)
	}
	if got := Reason(detective.ReasonTie); got != "tie" {
		t.Errorf("Reason(tie) = %q", got)
	}
}

func TestPlanPath(t *testing.T) {
	p := detective.Plan{Stages: [][]detective.Descriptor{
		{{ID: "github_basic"}},
		{{ID: "a"}, {ID: "b"}},
	}}
	if got, want := PlanPath(p), "github_basic → a + b"; got != want {
		t.Errorf("PlanPath = %q, want %q", got, want)
	}
	if got := PlanPath(detective.Plan{}); got != "" {
		t.Errorf("empty plan = %q", got)
	}
}
