// Package mcp exposes attribute inference as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// Inferrer runs the detective engine. It is satisfied by *wiring.Runtime.
type Inferrer interface {
	Infer(ctx context.Context, seed map[detective.Name]string) (*detective.Result, error)
	Descriptors() []detective.Descriptor
	Plan() detective.Plan
}

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	inferrer Inferrer
}

// NewServer creates an MCP server with the inference tools registered.
func NewServer(inf Inferrer, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{inferrer: inf}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "cii-detective", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "infer_attributes",
		Description: "Infer project attributes (name, license, ...) from a repository URL and optional seed attributes. Returns each attribute with confidence, explanation and the detective that supplied it.",
	}, s.handleInferAttributes)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_detectives",
		Description: "List the registered detectives with their inputs, outputs and scheduling stage.",
	}, s.handleListDetectives)
}

// --- Tool input/output types ---

type inferInput struct {
	RepoURL      string            `json:"repo_url,omitempty" jsonschema:"repository URL, e.g. https://github.com/owner/repo"`
	Seed         map[string]string `json:"seed,omitempty" jsonschema:"additional known attributes by name"`
	IncludeSeeds bool              `json:"include_seeds,omitempty" jsonschema:"also return the supplied seed attributes"`
}

type attribute struct {
	Value       string `json:"value"`
	Confidence  int    `json:"confidence"`
	Explanation string `json:"explanation"`
	Source      string `json:"source"`
}

type inferOutput struct {
	RunID      string               `json:"run_id"`
	Attributes map[string]attribute `json:"attributes"`
	Partial    bool                 `json:"partial"`
	Passes     int                  `json:"passes"`
	Skipped    []string             `json:"skipped,omitempty"`
	Error      string               `json:"error,omitempty"`
}

type listDetectivesInput struct{}

type detectiveInfo struct {
	ID      string   `json:"id"`
	Ordinal int      `json:"ordinal"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Stage   int      `json:"stage"`
}

type listDetectivesOutput struct {
	Detectives []detectiveInfo `json:"detectives"`
}

// --- Handlers ---

func (s *Server) handleInferAttributes(ctx context.Context, _ *sdkmcp.CallToolRequest, input inferInput) (*sdkmcp.CallToolResult, inferOutput, error) {
	seed := make(map[detective.Name]string, len(input.Seed)+1)
	for k, v := range input.Seed {
		n, err := detective.ParseName(k)
		if err != nil {
			return nil, inferOutput{}, fmt.Errorf("infer_attributes: seed: %w", err)
		}
		seed[n] = v
	}
	if input.RepoURL != "" {
		seed[detective.NameRepoURL] = input.RepoURL
	}
	if len(seed) == 0 {
		return nil, inferOutput{}, errors.New("infer_attributes: repo_url or seed is required")
	}

	res, err := s.inferrer.Infer(ctx, seed)
	if res == nil {
		return nil, inferOutput{}, fmt.Errorf("infer_attributes: %w", err)
	}

	out := res.Output(input.IncludeSeeds)
	attrs := make(map[string]attribute, len(out.Attributes))
	for n, r := range out.Attributes {
		attrs[string(n)] = attribute{
			Value:       r.Value,
			Confidence:  int(r.Confidence),
			Explanation: r.Explanation,
			Source:      r.Source,
		}
	}
	result := inferOutput{
		RunID:      out.RunID,
		Attributes: attrs,
		Partial:    out.Partial,
		Passes:     out.Passes,
		Skipped:    out.Skipped,
	}
	if err != nil {
		logging.New("mcp").Warn("inference incomplete", "run_id", out.RunID, "error", err)
		result.Error = err.Error()
	}
	return nil, result, nil
}

func (s *Server) handleListDetectives(_ context.Context, _ *sdkmcp.CallToolRequest, _ listDetectivesInput) (*sdkmcp.CallToolResult, listDetectivesOutput, error) {
	plan := s.inferrer.Plan()
	var out listDetectivesOutput
	for _, d := range s.inferrer.Descriptors() {
		out.Detectives = append(out.Detectives, detectiveInfo{
			ID:      d.ID,
			Ordinal: d.Ordinal,
			Inputs:  names(d.Inputs),
			Outputs: names(d.Outputs),
			Stage:   plan.Stage(d.ID),
		})
	}
	return nil, out, nil
}

func names(ns []detective.Name) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = string(n)
	}
	return out
}
