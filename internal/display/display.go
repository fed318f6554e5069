// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and logs meant for people.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import (
	"strings"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// --- Attributes ---

var attributes = map[detective.Name]string{
	detective.NameRepoURL:     "Repository URL",
	detective.NameHomepageURL: "Homepage URL",
	detective.NameName:        "Name",
	detective.NameDescription: "Description",
	detective.NameLicense:     "License",
}

// Attribute returns the human-readable name for an attribute.
// Unknown names are returned as-is.
func Attribute(n detective.Name) string {
	if label, ok := attributes[n]; ok {
		return label
	}
	return string(n)
}

// AttributeWithCode returns "License (license)" format.
func AttributeWithCode(n detective.Name) string {
	if label, ok := attributes[n]; ok {
		return label + " (" + string(n) + ")"
	}
	return string(n)
}

// --- Confidence ---

var confidence = map[detective.Confidence]string{
	0: "none",
	1: "weak",
	2: "low",
	3: "medium",
	4: "high",
	5: "certain",
}

// Confidence names a confidence level; out-of-range values read "invalid".
func Confidence(c detective.Confidence) string {
	if word, ok := confidence[c]; ok {
		return word
	}
	return "invalid"
}

// --- Sources ---

var sources = map[string]string{
	detective.SeedSource: "Supplied",
	"github_basic":       "GitHub basic",
}

// Source returns the human-readable name for a record source (a detective
// ID or the seed marker). Unknown IDs are returned as-is.
func Source(id string) string {
	if name, ok := sources[id]; ok {
		return name
	}
	return id
}

// --- Rejections ---

var reasons = map[string]string{
	detective.ReasonLowerConfidence: "lower",
	detective.ReasonTie:             "tie",
	detective.ReasonUndeclared:      "undeclared",
	detective.ReasonOutOfRange:      "out of range",
	detective.ReasonUnknown:         "unknown",
}

// Reason shortens an attempt rejection reason for table cells.
// Unknown reasons are returned as-is.
func Reason(r string) string {
	if short, ok := reasons[r]; ok {
		return short
	}
	return r
}

// --- Plan ---

// PlanPath renders the stages of a plan as a path.
// [[github_basic], [a, b]] -> "github_basic → a + b"
func PlanPath(p detective.Plan) string {
	stages := make([]string, 0, len(p.Stages))
	for _, stage := range p.Stages {
		ids := make([]string, len(stage))
		for i, d := range stage {
			ids[i] = d.ID
		}
		stages = append(stages, strings.Join(ids, " + "))
	}
	return strings.Join(stages, " → ")
}
