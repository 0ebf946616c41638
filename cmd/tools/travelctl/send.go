package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"travel-orchestrator/internal/common/camunda"
)

const defaultProcessID = "travel-conversation"

type sendOptions struct {
	zeebe     string
	processID string
	sessionID string
	lang      string
	lat, lon  float64
	timeout   time.Duration
}

// turnVariables are the process variables the analyze-message job reads.
func (o *sendOptions) turnVariables(cmd *cobra.Command, message string) map[string]interface{} {
	vars := map[string]interface{}{
		"sessionId": o.sessionID,
		"message":   message,
	}
	if o.lang != "" {
		vars["language"] = o.lang
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		vars["userLocation"] = map[string]interface{}{"latitude": o.lat, "longitude": o.lon}
	}
	return vars
}

func newSendCmd() *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Start a conversation turn process instance on Zeebe",
		Long: `Start a conversation turn process instance on Zeebe. The workers of a
running worker-manager pick up its jobs.

Example:
  travelctl send "Trains from Zurich to Bern at 8" --zeebe localhost:26500 --session demo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.zeebe == "" {
				return fmt.Errorf("zeebe gateway address is required, use --zeebe or ZEEBE_ADDRESS")
			}
			if opts.sessionID == "" {
				opts.sessionID = uuid.NewString()
			}

			client, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         opts.zeebe,
				UsePlaintextConnection: true,
				ConnectionTimeout:      opts.timeout,
				RequestTimeout:         opts.timeout,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			key, err := client.StartConversationTurn(ctx, opts.processID, opts.turnVariables(cmd, args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s instance %d for session %s\n", opts.processID, key, opts.sessionID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.zeebe, "zeebe", os.Getenv("ZEEBE_ADDRESS"), "Zeebe gateway address")
	f.StringVar(&opts.processID, "process", defaultProcessID, "BPMN process id")
	f.StringVar(&opts.sessionID, "session", "", "session id (default: new uuid)")
	f.StringVar(&opts.lang, "lang", "", "declared user language")
	f.Float64Var(&opts.lat, "lat", 0, "user latitude")
	f.Float64Var(&opts.lon, "lon", 0, "user longitude")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "gateway timeout")
	return cmd
}
