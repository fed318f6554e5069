// Package github implements the GitHub basic detective: given a GitHub
// repository URL it proposes the project name from the repository
// description and the license reported by the GitHub license API.
package github

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// ID is the detective's registry ID.
const ID = "github_basic"

// DefaultAPIBase is the GitHub REST API root.
const DefaultAPIBase = "https://api.github.com"

// Proposal confidence and explanations.
const (
	Confidence         detective.Confidence = 3
	NameExplanation                         = "GitHub description"
	LicenseExplanation                      = "GitHub API license analysis"
)

// repoURLPattern accepts only plain owner/repo URLs; anything needing
// escaping is out of scope.
var repoURLPattern = regexp.MustCompile(`^https?://github\.com/([A-Za-z0-9_-]+)/([A-Za-z0-9_-]+)/?$`)

// ParseRepoURL extracts owner and repo from a GitHub repository URL.
// ok is false for anything else: other hosts, extra path segments, query
// strings or characters outside [A-Za-z0-9_-].
func ParseRepoURL(s string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Option configures the detective.
type Option func(*Detective)

// WithAPIBase points the detective at a different API root, e.g. a test
// server or GitHub Enterprise.
func WithAPIBase(base string) Option {
	return func(d *Detective) {
		if base != "" {
			d.apiBase = strings.TrimSuffix(base, "/")
		}
	}
}

// WithID registers the detective under id instead of ID.
func WithID(id string) Option {
	return func(d *Detective) {
		if id != "" {
			d.id = id
		}
	}
}

// Detective proposes name and license for GitHub-hosted projects.
type Detective struct {
	id      string
	apiBase string
}

// New returns the GitHub basic detective.
func New(opts ...Option) *Detective {
	d := &Detective{id: ID, apiBase: DefaultAPIBase}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Detective) ID() string               { return d.id }
func (d *Detective) Inputs() []detective.Name { return []detective.Name{detective.NameRepoURL} }
func (d *Detective) Outputs() []detective.Name {
	return []detective.Name{detective.NameName, detective.NameLicense}
}

// Endpoints returns the two API URLs fetched for owner/repo.
func (d *Detective) Endpoints(owner, repo string) (repoEndpoint, licenseEndpoint string) {
	repoEndpoint = d.apiBase + "/repos/" + owner + "/" + repo
	return repoEndpoint, repoEndpoint + "/license"
}

// Analyze never returns an error: a URL that does not match or a payload
// that does not parse only removes the affected proposal.
func (d *Detective) Analyze(ctx context.Context, evidence detective.EvidenceSource, current detective.Snapshot) (detective.Proposals, error) {
	owner, repo, ok := ParseRepoURL(current.Value(detective.NameRepoURL))
	if !ok {
		return detective.Proposals{}, nil
	}
	repoEndpoint, licenseEndpoint := d.Endpoints(owner, repo)

	var repoBody, licenseBody string
	var g errgroup.Group
	g.Go(func() error {
		repoBody = evidence.Get(ctx, repoEndpoint)
		return nil
	})
	g.Go(func() error {
		licenseBody = evidence.Get(ctx, licenseEndpoint)
		return nil
	})
	_ = g.Wait()

	proposals := detective.Proposals{}
	if desc, ok := description(repoBody); ok {
		proposals[detective.NameName] = detective.Record{
			Value:       desc,
			Confidence:  Confidence,
			Explanation: NameExplanation,
		}
	}
	if key, ok := licenseKey(licenseBody); ok {
		// GitHub does not return SPDX casing; upper-casing fixes the common
		// identifiers (mit, apache-2.0) but not mixed-case ones.
		proposals[detective.NameLicense] = detective.Record{
			Value:       strings.ToUpper(key),
			Confidence:  Confidence,
			Explanation: LicenseExplanation,
		}
	}
	return proposals, nil
}

// description extracts a non-empty string "description" from a repository
// payload.
func description(body string) (string, bool) {
	fields, ok := object(body)
	if !ok {
		return "", false
	}
	return stringField(fields, "description")
}

// licenseKey extracts a non-empty string license.key from a license payload.
func licenseKey(body string) (string, bool) {
	fields, ok := object(body)
	if !ok {
		return "", false
	}
	raw, ok := fields["license"]
	if !ok {
		return "", false
	}
	var license map[string]json.RawMessage
	if err := json.Unmarshal(raw, &license); err != nil || license == nil {
		return "", false
	}
	return stringField(license, "key")
}

func object(body string) (map[string]json.RawMessage, bool) {
	if body == "" {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
