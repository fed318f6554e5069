// Package config loads the detective engine configuration from YAML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvGitHubAPI overrides evidence.github_api when set.
const EnvGitHubAPI = "DETECTIVE_GITHUB_API"

// Detective kinds.
const (
	KindGitHub = "github"
	KindStatic = "static"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration.
type Config struct {
	Log            Log         `yaml:"log"`
	Engine         Engine      `yaml:"engine"`
	Evidence       Evidence    `yaml:"evidence"`
	SeedConfidence int         `yaml:"seed_confidence"`
	Detectives     []Detective `yaml:"detectives"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Engine struct {
	MaxPasses        int      `yaml:"max_passes"`
	Parallelism      int      `yaml:"parallelism"`
	Reinvocation     string   `yaml:"reinvocation"`
	DetectiveTimeout Duration `yaml:"detective_timeout"`
	RunTimeout       Duration `yaml:"run_timeout"`
}

type Evidence struct {
	GitHubAPI     string   `yaml:"github_api"`
	Timeout       Duration `yaml:"timeout"`
	TokenEnv      string   `yaml:"token_env"`
	UserAgent     string   `yaml:"user_agent"`
	Accept        string   `yaml:"accept"`
	RatePerSecond float64  `yaml:"rate_per_second"`
	Burst         int      `yaml:"burst"`
	MaxBodyBytes  int64    `yaml:"max_body_bytes"`

	// Token is read from the environment variable named by TokenEnv.
	Token string `yaml:"-"`
}

// Detective declares one registered detective. Order in the file is the
// registration order, which decides equal-confidence ties.
type Detective struct {
	ID     string                 `yaml:"id"`
	Kind   string                 `yaml:"kind"`
	Inputs []string               `yaml:"inputs,omitempty"`
	Values map[string]StaticValue `yaml:"values,omitempty"`
}

// StaticValue is a value proposed by a static detective.
type StaticValue struct {
	Value       string `yaml:"value"`
	Confidence  int    `yaml:"confidence"`
	Explanation string `yaml:"explanation,omitempty"`
}

// Default returns the embedded defaults with environment overrides applied.
func Default() (*Config, error) {
	return Load("")
}

// Load reads the embedded defaults, merges the file at path over them when
// path is non-empty, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse default config: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvGitHubAPI); v != "" {
		c.Evidence.GitHubAPI = v
	}
	if c.Evidence.TokenEnv != "" {
		c.Evidence.Token = os.Getenv(c.Evidence.TokenEnv)
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level: %v", err)
	}
	if !logging.ValidFormat(c.Log.Format) {
		bad("log.format %q: want text or json", c.Log.Format)
	}

	if c.Engine.MaxPasses < 1 {
		bad("engine.max_passes must be positive, got %d", c.Engine.MaxPasses)
	}
	if c.Engine.Parallelism < 1 {
		bad("engine.parallelism must be positive, got %d", c.Engine.Parallelism)
	}
	if _, err := detective.ParseReinvocation(c.Engine.Reinvocation); err != nil {
		bad("engine.reinvocation: %v", err)
	}
	if c.Engine.DetectiveTimeout < 0 || c.Engine.RunTimeout < 0 {
		bad("engine timeouts must not be negative")
	}

	if !strings.HasPrefix(c.Evidence.GitHubAPI, "http://") && !strings.HasPrefix(c.Evidence.GitHubAPI, "https://") {
		bad("evidence.github_api %q is not an http(s) URL", c.Evidence.GitHubAPI)
	}
	if c.Evidence.Timeout <= 0 {
		bad("evidence.timeout must be positive")
	}
	if c.Evidence.RatePerSecond < 0 {
		bad("evidence.rate_per_second must not be negative")
	}
	if c.Evidence.RatePerSecond > 0 && c.Evidence.Burst < 1 {
		bad("evidence.burst must be positive when rate_per_second is set")
	}
	if c.Evidence.MaxBodyBytes <= 0 {
		bad("evidence.max_body_bytes must be positive")
	}

	if !detective.Confidence(c.SeedConfidence).Valid() {
		bad("seed_confidence %d outside %d..%d", c.SeedConfidence, detective.MinConfidence, detective.MaxConfidence)
	}

	if len(c.Detectives) == 0 {
		bad("no detectives configured")
	}
	seen := make(map[string]bool, len(c.Detectives))
	for i, d := range c.Detectives {
		where := fmt.Sprintf("detectives[%d]", i)
		if d.ID == "" {
			bad("%s: empty id", where)
		} else if d.ID == detective.SeedSource {
			bad("%s: id %q is reserved for seed records", where, d.ID)
		} else if seen[d.ID] {
			bad("%s: duplicate id %q", where, d.ID)
		}
		seen[d.ID] = true

		switch d.Kind {
		case KindGitHub:
			if len(d.Inputs) > 0 || len(d.Values) > 0 {
				bad("%s: github detective takes no inputs or values", where)
			}
		case KindStatic:
			if len(d.Values) == 0 {
				bad("%s: static detective needs values", where)
			}
			for _, in := range d.Inputs {
				if _, err := detective.ParseName(in); err != nil {
					bad("%s.inputs: %v", where, err)
				}
			}
			for name, v := range d.Values {
				if _, err := detective.ParseName(name); err != nil {
					bad("%s.values: %v", where, err)
				}
				if !detective.Confidence(v.Confidence).Valid() {
					bad("%s.values.%s: confidence %d out of range", where, name, v.Confidence)
				}
			}
		default:
			bad("%s: unknown kind %q", where, d.Kind)
		}
	}
	return errors.Join(errs...)
}
