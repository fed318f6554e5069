package mcp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jakim54/cii-best-practices-badge/internal/detectives/github"
	"github.com/jakim54/cii-best-practices-badge/internal/evidence"
	mcpserver "github.com/jakim54/cii-best-practices-badge/internal/mcp"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

const repoAPI = "https://api.github.com/repos/linuxfoundation/cii-best-practices-badge"

// engineInferrer runs a real engine over stubbed evidence.
type engineInferrer struct {
	eng *detective.Engine
	src detective.EvidenceSource
}

func (e *engineInferrer) Infer(ctx context.Context, seed map[detective.Name]string) (*detective.Result, error) {
	return e.eng.Run(ctx, e.src, detective.Seed(seed, detective.MaxConfidence))
}
func (e *engineInferrer) Descriptors() []detective.Descriptor { return e.eng.Descriptors() }
func (e *engineInferrer) Plan() detective.Plan                { return e.eng.Plan() }

func newInferrer(t *testing.T) *engineInferrer {
	t.Helper()
	reg := detective.NewRegistry()
	reg.MustRegister(github.New())
	eng, err := detective.NewEngine(reg)
	if err != nil {
		t.Fatal(err)
	}
	return &engineInferrer{eng: eng, src: evidence.NewStub(map[string]string{
		repoAPI:              `{"description": "Best Practices Badge"}`,
		repoAPI + "/license": `{"license": {"key": "mit"}}`,
	})}
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool invokes name and decodes the text content into out.
func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if tc, ok := c.(*sdkmcp.TextContent); ok {
				t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
			}
		}
		t.Fatalf("CallTool(%s) returned error", name)
	}
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), out); err != nil {
				t.Fatalf("decode %s output: %v\n%s", name, err, tc.Text)
			}
			return
		}
	}
	t.Fatalf("CallTool(%s): no text content", name)
}

func TestServer_ListsTools(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(newInferrer(t), "test"))

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := map[string]bool{}
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, want := range []string{"infer_attributes", "list_detectives"} {
		if !got[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestServer_InferAttributes(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(newInferrer(t), "test"))

	var out struct {
		RunID      string `json:"run_id"`
		Attributes map[string]struct {
			Value      string `json:"value"`
			Confidence int    `json:"confidence"`
			Source     string `json:"source"`
		} `json:"attributes"`
		Partial bool `json:"partial"`
		Passes  int  `json:"passes"`
	}
	callTool(t, ctx, session, "infer_attributes", map[string]any{
		"repo_url": "https://github.com/linuxfoundation/cii-best-practices-badge",
	}, &out)

	if out.RunID == "" || out.Partial || out.Passes != 1 {
		t.Errorf("run_id = %q, partial = %v, passes = %d", out.RunID, out.Partial, out.Passes)
	}
	if got := out.Attributes["name"]; got.Value != "Best Practices Badge" || got.Confidence != 3 || got.Source != github.ID {
		t.Errorf("name = %+v", got)
	}
	if got := out.Attributes["license"]; got.Value != "MIT" {
		t.Errorf("license = %+v", got)
	}
	if _, ok := out.Attributes["repo_url"]; ok {
		t.Error("seed returned without include_seeds")
	}
}

func TestServer_InferAttributes_UnknownSeed(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(newInferrer(t), "test"))

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "infer_attributes",
		Arguments: map[string]any{"seed": map[string]any{"licence": "MIT"}},
	})
	if err == nil && !res.IsError {
		t.Fatal("unknown seed attribute accepted")
	}
}

func TestServer_ListDetectives(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(newInferrer(t), "test"))

	var out struct {
		Detectives []struct {
			ID      string   `json:"id"`
			Inputs  []string `json:"inputs"`
			Outputs []string `json:"outputs"`
			Stage   int      `json:"stage"`
		} `json:"detectives"`
	}
	callTool(t, ctx, session, "list_detectives", map[string]any{}, &out)

	if len(out.Detectives) != 1 || out.Detectives[0].ID != github.ID {
		t.Fatalf("detectives = %+v", out.Detectives)
	}
	if d := out.Detectives[0]; len(d.Outputs) != 2 || d.Stage != 0 {
		t.Errorf("detective = %+v", d)
	}
}
