package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu"
	"travel-orchestrator/internal/orchestration"
	"travel-orchestrator/internal/session"
	"travel-orchestrator/internal/tools"
	"travel-orchestrator/pkg/registry"
)

type planOptions struct {
	lang     string
	toolsURL string
	apiKey   string
	style    string
	lat, lon float64
	timeout  time.Duration
	asJSON   bool
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan <message>",
		Short: "Analyse a message, then build and run the plan of its primary intent",
		Long: `Analyse a message, then build and run the plan of its primary intent
against the tool proxy.

Example:
  travelctl plan "trains from here to Bern" --lat 47.3769 --lon 8.5417 --tools-url http://localhost:8000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.toolsURL == "" {
				return fmt.Errorf("tool proxy URL is required, use --tools-url or TOOLS_BASE_URL")
			}
			return runPlan(cmd, root, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.lang, "lang", "", "declared user language")
	f.StringVar(&opts.toolsURL, "tools-url", os.Getenv("TOOLS_BASE_URL"), "tool proxy base URL")
	f.StringVar(&opts.apiKey, "api-key", os.Getenv("TOOLS_API_KEY"), "tool proxy API key")
	f.StringVar(&opts.style, "style", "", "travel style preference (eco, fast)")
	f.Float64Var(&opts.lat, "lat", 0, "user latitude")
	f.Float64Var(&opts.lon, "lon", 0, "user longitude")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall plan timeout")
	f.BoolVar(&opts.asJSON, "json", false, "print the full execution result as JSON")
	return cmd
}

func runPlan(cmd *cobra.Command, root *rootOptions, opts *planOptions, message string) error {
	lex, err := root.lexicon()
	if err != nil {
		return err
	}
	catalog, err := registry.Default()
	if err != nil {
		return err
	}
	log := root.logger()

	analysis := nlu.NewAnalyzer(lex, log).Analyze(message, models.Language(opts.lang))

	sc := session.New(uuid.NewString())
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		sc.SetUserLocation(&models.GeoPoint{Latitude: opts.lat, Longitude: opts.lon})
	}
	if opts.style != "" {
		sc.MergePreferences(session.Preferences{TravelStyle: opts.style})
	}

	out := cmd.OutOrStdout()
	plan := orchestration.NewBuilder().Build(analysis.Primary, sc)
	if plan.Empty() {
		fmt.Fprintf(out, "No orchestration available for intent %s (confidence %.2f)\n",
			analysis.Primary.Type, analysis.Primary.Confidence)
		return nil
	}

	invoker := tools.NewHTTPInvoker(tools.HTTPConfig{
		BaseURL:    opts.toolsURL,
		APIKey:     opts.apiKey,
		MaxRetries: 2,
	}, catalog, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	result := orchestration.NewExecutor(invoker, log).Execute(ctx, plan, sc)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if formatted := orchestration.FormatResults(result); formatted != "" {
		fmt.Fprint(out, formatted)
	}
	fmt.Fprintf(out, "\n%s: %s (%d steps, %s)\n", plan.Description, result.Status, len(result.Results), result.TotalDuration.Round(time.Millisecond))
	for _, id := range result.Summary.FailedSteps {
		if r, ok := result.Result(id); ok {
			fmt.Fprintf(out, "  failed %s: %s\n", id, r.Error)
		}
	}
	return nil
}
