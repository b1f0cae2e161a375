package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/orchestrator"
	"github.com/OrcaBus/service-bclconvert-manager/internal/template"
)

// stackAll selects both stacks.
const stackAll = "all"

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		stack        string
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the CloudFormation templates",
		Long: `Build compiles the service for a stage and writes one or both stacks.

With --stack all, --output names a directory and each stack is written to
<directory>/<stack name>.<format>.

Examples:
    bclconvert-manager build --stage BETA --stack stateful
    bclconvert-manager build --stage PROD --stack stateless -f yaml -o stateless.yaml
    bclconvert-manager build --stage GAMMA --stack all -o cdk.out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stacks, err := parseStacks(stack)
			if err != nil {
				return err
			}
			cfg, g, err := opts.compile(cmd.Context())
			if err != nil {
				return outputResult(cmd, bclconvert.BuildResult{Success: false, Errors: []string{err.Error()}}, nil, outputFormat, outputFile)
			}
			return runBuild(cmd, cfg, g, stacks, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVar(&stack, "stack", stackAll, "Stack to build: stateful, stateless or all")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file, or directory with --stack all (default: stdout)")

	return cmd
}

// parseStacks expands a --stack value.
func parseStacks(s string) ([]template.Stack, error) {
	if s == stackAll {
		return template.Stacks, nil
	}
	st, err := template.ParseStack(s)
	if err != nil {
		return nil, err
	}
	return []template.Stack{st}, nil
}

func runBuild(cmd *cobra.Command, cfg *config.Config, g *orchestrator.Graph, stacks []template.Stack, format, output string) error {
	for _, st := range stacks {
		tmpl, err := template.Synthesize(g, cfg, st)
		if err != nil {
			return outputResult(cmd, bclconvert.BuildResult{Success: false, Stack: st.Name(), Errors: []string{err.Error()}}, nil, format, output)
		}

		dest := output
		if output != "" && len(stacks) > 1 {
			if err := os.MkdirAll(output, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			dest = filepath.Join(output, st.Name()+"."+format)
		}

		result := bclconvert.BuildResult{Success: true, Stack: st.Name(), Resources: resourceNames(tmpl)}
		if err := outputResult(cmd, result, tmpl, format, dest); err != nil {
			return err
		}
	}
	return nil
}

func resourceNames(t *bclconvert.Template) []string {
	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func outputResult(cmd *cobra.Command, result bclconvert.BuildResult, tmpl *bclconvert.Template, format, outputFile string) error {
	// Failures go to stderr; stdout only ever carries templates.
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), e)
		}
		return fmt.Errorf("build failed")
	}

	data, err := render(tmpl, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		return writeLine(cmd.OutOrStdout(), data)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d resources) to %s\n", result.Stack, len(result.Resources), outputFile)
	return nil
}

func render(tmpl *bclconvert.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(tmpl)
	case "yaml":
		return template.ToYAML(tmpl)
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

func writeLine(w io.Writer, data []byte) error {
	_, err := fmt.Fprintln(w, string(data))
	return err
}
