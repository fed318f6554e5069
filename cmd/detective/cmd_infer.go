package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakim54/cii-best-practices-badge/internal/cassette"
	"github.com/jakim54/cii-best-practices-badge/internal/config"
	"github.com/jakim54/cii-best-practices-badge/internal/format"
	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	"github.com/jakim54/cii-best-practices-badge/internal/wiring"
	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

type inferOptions struct {
	seeds      []string
	output     string
	all        bool
	runs       bool
	attempts   bool
	timeout    time.Duration
	record     string
	replay     string
	cassetteDB string
	cassette   string
	recordDB   bool
}

func newInferCmd(root *rootOptions) *cobra.Command {
	opts := &inferOptions{}
	cmd := &cobra.Command{
		Use:   "infer [repo-url]",
		Short: "Infer attributes for a repository",
		Long: `Infer runs every detective whose inputs are known, merges their proposals
and repeats until nothing new can run.

Usage:
  detective infer https://github.com/owner/repo
  detective infer --seed repo_url=https://github.com/owner/repo --seed name=Foo
  detective infer https://github.com/owner/repo --record fixture.yaml
  detective infer https://github.com/owner/repo --replay fixture.yaml -o json

The GitHub token is read from $GITHUB_TOKEN (see evidence.token_env).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, root, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.seeds, "seed", nil, "Known attribute as name=value (repeatable)")
	f.StringVarP(&opts.output, "output", "o", "table", "Output: table, markdown or json")
	f.BoolVar(&opts.all, "all", false, "Include seed attributes in the output")
	f.BoolVar(&opts.runs, "runs", false, "Also print each detective invocation")
	f.BoolVar(&opts.attempts, "attempts", false, "Also print proposals that lost the merge or were rejected")
	f.DurationVar(&opts.timeout, "timeout", 0, "Run timeout (default engine.run_timeout)")
	f.StringVar(&opts.record, "record", "", "Record fetched evidence to this cassette file")
	f.StringVar(&opts.replay, "replay", "", "Replay evidence from this cassette file instead of the network")
	f.StringVar(&opts.cassetteDB, "cassette-db", DefaultCassetteDB, "Cassette library used with --cassette")
	f.StringVar(&opts.cassette, "cassette", "", "Replay the named cassette from the library (or record into it with --record-db)")
	f.BoolVar(&opts.recordDB, "record-db", false, "Record into --cassette instead of replaying it")
	return cmd
}

func runInfer(cmd *cobra.Command, root *rootOptions, opts *inferOptions, args []string) error {
	mode, asJSON, err := parseOutput(opts.output)
	if err != nil {
		return err
	}
	seed, err := parseSeeds(opts.seeds)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		seed[detective.NameRepoURL] = args[0]
	}
	if len(seed) == 0 {
		return errors.New("a repository URL or at least one --seed is required\n\nUsage: detective infer <repo-url>")
	}
	if opts.recordDB && opts.cassette == "" {
		return errors.New("--record-db needs --cassette")
	}
	recording := opts.record != "" || opts.recordDB
	replaying := opts.replay != "" || (opts.cassette != "" && !opts.recordDB)
	if recording && replaying {
		return errors.New("cannot record and replay in the same run")
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	src, rec, err := inferSource(cmd.Context(), cfg, opts)
	if err != nil {
		return err
	}
	rt, err := wiring.Build(cfg, wiring.Options{Source: src})
	if err != nil {
		return err
	}

	timeout := cfg.Engine.RunTimeout.Std()
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	res, runErr := rt.InferWithin(cmd.Context(), seed, timeout)
	if res == nil {
		return runErr
	}

	if rec != nil {
		if err := saveRecording(cmd.Context(), rec, opts); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if err := writeJSON(out, res.Output(opts.all)); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, format.Result(mode, res, opts.all))
		if opts.runs && len(res.Runs) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, format.Runs(mode, res.Runs))
		}
		if opts.attempts && rejected(res.Attempts) {
			fmt.Fprintln(out)
			fmt.Fprintln(out, format.Attempts(mode, res.Attempts))
		}
	}
	return runErr
}

// inferSource picks the evidence source for a run. A nil source means the
// configured HTTP source.
func inferSource(ctx context.Context, cfg *config.Config, opts *inferOptions) (detective.EvidenceSource, *cassette.Recorder, error) {
	switch {
	case opts.replay != "":
		c, err := cassette.Load(opts.replay)
		if err != nil {
			return nil, nil, err
		}
		return cassette.NewPlayer(c), nil, nil
	case opts.cassette != "" && !opts.recordDB:
		lib, err := cassette.OpenLibrary(opts.cassetteDB)
		if err != nil {
			return nil, nil, err
		}
		defer lib.Close()
		c, err := lib.Get(ctx, opts.cassette)
		if err != nil {
			return nil, nil, fmt.Errorf("cassette %q: %w", opts.cassette, err)
		}
		return cassette.NewPlayer(c), nil, nil
	case opts.record != "" || opts.recordDB:
		upstream, err := wiring.NewHTTPSource(cfg.Evidence, logging.New("evidence"))
		if err != nil {
			return nil, nil, err
		}
		rec := cassette.NewRecorder(upstream)
		return rec, rec, nil
	}
	return nil, nil, nil
}

func saveRecording(ctx context.Context, rec *cassette.Recorder, opts *inferOptions) error {
	log := logging.New("cassette")
	if opts.record != "" {
		c := rec.Cassette("")
		if err := c.Save(opts.record); err != nil {
			return err
		}
		log.Info("recorded cassette", "path", opts.record, "interactions", len(c.Interactions))
		return nil
	}
	lib, err := cassette.OpenLibrary(opts.cassetteDB)
	if err != nil {
		return err
	}
	defer lib.Close()
	c := rec.Cassette(opts.cassette)
	if err := lib.Put(ctx, c); err != nil {
		return err
	}
	log.Info("recorded cassette", "db", opts.cassetteDB, "name", c.Name, "interactions", len(c.Interactions))
	return nil
}

func rejected(attempts []detective.Attempt) bool {
	for _, a := range attempts {
		if !a.Accepted {
			return true
		}
	}
	return false
}
