// Command bclconvert-manager compiles the BCLConvert manager service into
// CloudFormation templates.
//
// Usage:
//
//	bclconvert-manager build --stage BETA --stack stateless   Generate a template
//	bclconvert-manager list                                   Show declared resources
//	bclconvert-manager route event.json                       Route an event
//	bclconvert-manager version                                Show version
package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/OrcaBus/service-bclconvert-manager/app"
	"github.com/OrcaBus/service-bclconvert-manager/internal/artifact"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/logging"
	"github.com/OrcaBus/service-bclconvert-manager/internal/orchestrator"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	stage      string
	configPath string
	artifacts  string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "bclconvert-manager",
		Short: "Compile the BCLConvert manager into CloudFormation",
		Long: `bclconvert-manager resolves the function and state machine tables of the
BCLConvert manager into IAM roles, environment wiring, event rules and the ICA
ingestion pipe, and renders them as two CloudFormation stacks:

    bclconvert-manager build --stage BETA --stack stateful
    bclconvert-manager build --stage BETA --stack stateless -f yaml`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.stage, "stage", string(config.StageBeta), "Deployment stage: BETA, GAMMA or PROD")
	pf.StringVar(&opts.configPath, "config", "", "YAML file overriding the stage defaults")
	pf.StringVar(&opts.artifacts, "artifacts", "", "Artifact directory (default: embedded artifacts)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newListCmd(opts),
		newGraphCmd(opts),
		newValidateCmd(opts),
		newDiffCmd(),
		newRouteCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bclconvert-manager %s\n", getVersion())
		},
	}
}

// loadConfig resolves the stage configuration and applies the log flags.
// The closer releases the log output and must be closed by the caller.
func (o *globalOptions) loadConfig() (*config.Config, zerolog.Logger, io.Closer, error) {
	stage, err := config.ParseStage(o.stage)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	cfg, err := config.Load(stage, o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return cfg, logger, closer, nil
}

// artifactFS returns the artifact directory, falling back to the embedded copy.
func (o *globalOptions) artifactFS() fs.FS {
	if o.artifacts == "" {
		return app.FS
	}
	return os.DirFS(o.artifacts)
}

// compile runs the orchestrator for the selected stage.
func (o *globalOptions) compile(ctx context.Context) (*config.Config, *orchestrator.Graph, error) {
	cfg, logger, closer, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	store, err := artifact.Open(o.artifactFS())
	if err != nil {
		return nil, nil, err
	}

	g, err := orchestrator.New(cfg, store).Run(logging.WithContext(ctx, logger))
	if err != nil {
		return nil, nil, err
	}
	return cfg, g, nil
}
