package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/logging"
	"github.com/OrcaBus/service-bclconvert-manager/internal/pipe"
	"github.com/OrcaBus/service-bclconvert-manager/internal/routing"
)

func newRouteCmd(opts *globalOptions) *cobra.Command {
	var viaPipe bool

	cmd := &cobra.Command{
		Use:   "route <event.json>",
		Short: "Show where an event is delivered",
		Long: `Route matches an EventBridge event against the stage's rule table and prints
the matched rule, its target state machine and the input the target receives.

With --pipe the file is treated as an ICA queue message body and delivered
through the ingestion pipe instead.

Examples:
    bclconvert-manager route ready-event.json
    bclconvert-manager route --stage PROD srm-event.json
    bclconvert-manager route --pipe ica-message.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading event: %w", err)
			}
			cfg, logger, closer, err := opts.loadConfig()
			if err != nil {
				return err
			}
			defer closer.Close()

			var result bclconvert.RouteResult
			if viaPipe {
				result, err = routePipe(logging.WithContext(cmd.Context(), logger), cfg, data)
			} else {
				result, err = routeEvent(cfg, data)
			}
			if err != nil {
				result = bclconvert.RouteResult{Matched: false, Error: err.Error()}
			}
			if werr := writeJSON(cmd.OutOrStdout(), result); werr != nil {
				return werr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&viaPipe, "pipe", false, "Deliver the file through the ingestion pipe")

	return cmd
}

func routeEvent(cfg *config.Config, data []byte) (bclconvert.RouteResult, error) {
	event, err := routing.ParseEvent(data)
	if err != nil {
		return bclconvert.RouteResult{}, err
	}
	router, err := routing.NewRouter(cfg.RouteRevision)
	if err != nil {
		return bclconvert.RouteResult{}, err
	}
	routed, err := router.Dispatch(event)
	if err != nil {
		return bclconvert.RouteResult{}, err
	}
	return bclconvert.RouteResult{
		Matched: true,
		Rule:    routed.Rule.Name,
		Target:  string(routed.Rule.Target),
		Shape:   routed.Rule.Shape.String(),
		Input:   routed.Input,
	}, nil
}

// routePipe runs one message through a simulated pipe and reports what its
// target was started with.
func routePipe(ctx context.Context, cfg *config.Config, body []byte) (bclconvert.RouteResult, error) {
	pc := pipe.FromStage(cfg)

	var started json.RawMessage
	target := pipe.StarterFunc(func(_ context.Context, input json.RawMessage) error {
		started = input
		return nil
	})

	sim, err := pipe.NewSimulator(pc, target, prometheus.NewRegistry(), pipe.WithLogger(logging.FromContext(ctx)))
	if err != nil {
		return bclconvert.RouteResult{}, err
	}
	sim.Send(body)
	if err := sim.Drain(ctx); err != nil {
		return bclconvert.RouteResult{}, err
	}
	if started == nil {
		return bclconvert.RouteResult{}, fmt.Errorf("message was not delivered to %s", pc.Target)
	}

	return bclconvert.RouteResult{
		Matched: true,
		Rule:    pc.PipeName,
		Target:  string(pc.Target),
		Input:   started,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeLine(w, data)
}
