package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "analyze <message>",
		Short: "Segment and classify a message, print the analysis as JSON",
		Long: `Segment and classify a message.

Example:
  travelctl analyze "Zug von Zürich nach Bern morgen um 8 Uhr" --lang de`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, err := root.lexicon()
			if err != nil {
				return err
			}
			analysis := nlu.NewAnalyzer(lex, root.logger()).Analyze(args[0], models.Language(lang))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "declared user language (en, de, fr, it, zh, hi)")
	return cmd
}
