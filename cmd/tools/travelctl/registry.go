package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"travel-orchestrator/pkg/registry"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the worker and tool registry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate [file]",
			Short: "Check a registry file; without a file the embedded registry is checked",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				cat, err := registry.LoadRegistry(path)
				if err != nil {
					return fmt.Errorf("failed to load registry: %w", err)
				}
				if err := cat.Check(); err != nil {
					return fmt.Errorf("registry validation failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities and %d tools.\n",
					len(cat.Activities), len(cat.Tools))
				return nil
			},
		},
		&cobra.Command{
			Use:   "tools",
			Short: "List the tools of the embedded registry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := registry.Default()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCACHEABLE\tTIMEOUT\tDESCRIPTION")
				for _, t := range cat.Tools {
					timeout := t.Timeout
					if timeout == "" {
						timeout = "-"
					}
					fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", t.Name, t.Cacheable, timeout, t.Description)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}
