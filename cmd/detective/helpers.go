package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jakim54/cii-best-practices-badge/internal/config"
	"github.com/jakim54/cii-best-practices-badge/internal/format"
	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// DefaultCassetteDB is where cassette commands keep their library.
const DefaultCassetteDB = ".detective/cassettes.db"

// loadConfig reads the configuration, applies the logging flags over it and
// initialises logging to stderr.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if !logging.ValidFormat(cfg.Log.Format) {
		return nil, fmt.Errorf("--log-format %q: want text or json", cfg.Log.Format)
	}
	logging.Init(level, cfg.Log.Format, os.Stderr)
	return cfg, nil
}

// parseSeeds turns name=value pairs into seed values.
func parseSeeds(pairs []string) (map[detective.Name]string, error) {
	seed := make(map[detective.Name]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("--seed %q: want name=value", p)
		}
		n, err := detective.ParseName(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("--seed %q: %w", p, err)
		}
		seed[n] = v
	}
	return seed, nil
}

const outputJSON = "json"

// parseOutput accepts json or any table mode.
func parseOutput(s string) (format.Mode, bool, error) {
	if s == outputJSON {
		return format.ASCII, true, nil
	}
	m, err := format.ParseMode(s)
	return m, false, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
