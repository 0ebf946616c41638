package main

import (
	"github.com/spf13/cobra"

	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/nlu/lexicon"
)

type rootOptions struct {
	lexiconPath string
	verbose     bool
}

func (o *rootOptions) logger() logger.Logger {
	if o.verbose {
		return logger.NewStructured("debug", "console", "stderr")
	}
	return logger.NewNoOpLogger()
}

func (o *rootOptions) lexicon() (*lexicon.Lexicon, error) {
	return lexicon.LoadFile(o.lexiconPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "travelctl",
		Short:         "Analyse travel chat messages and run trip plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.lexiconPath, "lexicon", "", "lexicon YAML file (default: embedded)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(newAnalyzeCmd(opts), newPlanCmd(opts), newSendCmd(), newLexiconCmd(), newRegistryCmd())
	return cmd
}
