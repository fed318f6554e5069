// detective infers project attributes (name, license, ...) from a
// repository URL by running the registered detectives to a fixed point.
//
// Usage:
//
//	detective infer https://github.com/owner/repo [--seed name=value] [-o table|markdown|json]
//	detective detectives
//	detective serve [--metrics-addr :9090]
//	detective cassette list|import|export|delete
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "detective",
		Short: "Infer project attributes from repository evidence",
		Long: `detective runs a set of detectives against a project's known attributes.
Each detective reads external evidence (the GitHub API for the built-in one)
and proposes attribute values with a confidence from 0 to 5; the highest
confidence wins and equal confidence keeps the earlier registered detective.`,
		Version:      version,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML config merged over the defaults")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (default from config)")

	cmd.AddCommand(
		newInferCmd(opts),
		newDetectivesCmd(opts),
		newServeCmd(opts),
		newCassetteCmd(),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
