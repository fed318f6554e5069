package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detective.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv(EnvGitHubAPI, "")
	t.Setenv("GITHUB_TOKEN", "secret")

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	want := Config{
		Log:    Log{Level: "info", Format: "text"},
		Engine: Engine{MaxPasses: 10, Parallelism: 4, Reinvocation: "once", RunTimeout: Duration(time.Minute)},
		Evidence: Evidence{
			GitHubAPI:    "https://api.github.com",
			Timeout:      Duration(10 * time.Second),
			TokenEnv:     "GITHUB_TOKEN",
			UserAgent:    "cii-best-practices-badge-detective",
			Accept:       "application/vnd.github+json",
			Burst:        1,
			MaxBodyBytes: 4 << 20,
			Token:        "secret",
		},
		SeedConfidence: 5,
		Detectives:     []Detective{{ID: "github_basic", Kind: KindGitHub}},
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("default config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	t.Setenv(EnvGitHubAPI, "http://127.0.0.1:9999")
	path := writeConfig(t, `
engine:
  max_passes: 3
  reinvocation: on_input_change
evidence:
  token_env: ""
detectives:
  - id: pinned
    kind: static
    inputs: [repo_url]
    values:
      license: {value: MIT, confidence: 4}
  - id: github_basic
    kind: github
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxPasses != 3 || cfg.Engine.Parallelism != 4 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Evidence.GitHubAPI != "http://127.0.0.1:9999" {
		t.Errorf("env override not applied: %q", cfg.Evidence.GitHubAPI)
	}
	if cfg.Evidence.Token != "" {
		t.Errorf("token read with empty token_env")
	}
	if len(cfg.Detectives) != 2 || cfg.Detectives[0].ID != "pinned" {
		t.Errorf("detectives = %+v", cfg.Detectives)
	}
	if got := cfg.Detectives[0].Values["license"]; got.Value != "MIT" || got.Confidence != 4 {
		t.Errorf("static value = %+v", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvGitHubAPI, "")
	path := writeConfig(t, `
log: {level: loud, format: xml}
engine: {max_passes: 0, parallelism: 0, reinvocation: sometimes}
evidence: {github_api: "ftp://x", rate_per_second: 2, burst: 0}
seed_confidence: 9
detectives:
  - id: a
    kind: static
    values:
      licence: {value: MIT, confidence: 7}
  - id: a
    kind: oracle
  - id: seed
    kind: github
`)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	for _, want := range []string{
		"log.level", "log.format", "max_passes", "parallelism", "reinvocation",
		"github_api", "burst", "seed_confidence", "licence", "out of range",
		"duplicate id", "unknown kind", "reserved",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestDuration_BadValue(t *testing.T) {
	path := writeConfig(t, "evidence:\n  timeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("bad duration accepted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
