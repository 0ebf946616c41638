package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"travel-orchestrator/internal/nlu/lexicon"
)

func newLexiconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Lexicon maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a lexicon file against the schema and compile its patterns",
		Long: `Validate a lexicon file. Without a file the embedded lexicon is checked.

Example:
  travelctl lexicon validate configs/lexicon.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			lex, err := lexicon.LoadFile(path)
			if err != nil {
				return err
			}

			langs := make([]string, 0, len(lex.Languages))
			for l := range lex.Languages {
				langs = append(langs, string(l))
			}
			sort.Strings(langs)

			name := path
			if name == "" {
				name = "embedded lexicon"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (version %s, languages %s)\n", name, lex.Version, strings.Join(langs, ","))
			return nil
		},
	})
	return cmd
}
