package static

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

func TestNew_OutputsInVocabularyOrder(t *testing.T) {
	d := New("pin", []detective.Name{detective.NameRepoURL}, map[detective.Name]detective.Record{
		detective.NameLicense: {Value: "MIT", Confidence: 4},
		detective.NameName:    {Value: "Badge", Confidence: 2, Explanation: "operator"},
	})
	if diff := cmp.Diff([]detective.Name{detective.NameName, detective.NameLicense}, d.Outputs()); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	got, err := d.Analyze(context.Background(), nil, detective.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	want := detective.Proposals{
		detective.NameLicense: {Value: "MIT", Confidence: 4, Explanation: DefaultExplanation},
		detective.NameName:    {Value: "Badge", Confidence: 2, Explanation: "operator"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("proposals mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_UnknownNameRejectedByRegistry(t *testing.T) {
	d := New("bad", nil, map[detective.Name]detective.Record{"licence": {Value: "MIT"}})
	err := detective.NewRegistry().Register(d)
	if !errors.Is(err, detective.ErrUnknownAttribute) {
		t.Errorf("Register error = %v, want ErrUnknownAttribute", err)
	}
}
