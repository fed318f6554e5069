package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakim54/cii-best-practices-badge/internal/cassette"
	"github.com/jakim54/cii-best-practices-badge/internal/format"
)

func newCassetteCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "cassette",
		Short: "Manage recorded evidence in the cassette library",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", DefaultCassetteDB, "Cassette library path")

	withLibrary := func(fn func(cmd *cobra.Command, lib *cassette.Library, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			lib, err := cassette.OpenLibrary(dbPath)
			if err != nil {
				return err
			}
			defer lib.Close()
			return fn(cmd, lib, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored cassettes",
		Args:  cobra.NoArgs,
		RunE: withLibrary(func(cmd *cobra.Command, lib *cassette.Library, _ []string) error {
			sums, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no cassettes")
				return nil
			}
			tb := format.NewTable(format.ASCII)
			tb.Header("Name", "Interactions", "Updated")
			for _, s := range sums {
				tb.Row(s.Name, s.Interactions, s.UpdatedAt.Format(time.RFC3339))
			}
			tb.Align(format.AlignRight, 2)
			fmt.Fprintln(cmd.OutOrStdout(), tb.String())
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>...",
		Short: "Store cassette files in the library (replacing same-named cassettes)",
		Args:  cobra.MinimumNArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, lib *cassette.Library, args []string) error {
			for _, path := range args {
				c, err := cassette.Load(path)
				if err != nil {
					return err
				}
				if err := lib.Put(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d interactions)\n", c.Name, len(c.Interactions))
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <name> <file.yaml>",
		Short: "Write a stored cassette to a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: withLibrary(func(cmd *cobra.Command, lib *cassette.Library, args []string) error {
			c, err := lib.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("cassette %q: %w", args[0], err)
			}
			if err := c.Save(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", c.Name, args[1])
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a cassette from the library",
		Args:  cobra.ExactArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, lib *cassette.Library, args []string) error {
			if err := lib.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("cassette %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	})
	return cmd
}
