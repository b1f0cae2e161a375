package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/internal/template"
	"github.com/OrcaBus/service-bclconvert-manager/internal/validation"
)

// newValidateCmd creates the "validate" subcommand, which lints the
// synthesized templates.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		stack        string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint the synthesized templates",
		Long: `Validate compiles the service, synthesizes the selected stacks and runs
cfn-lint over each template. Warnings are reported but do not fail validation.

Examples:
    bclconvert-manager validate
    bclconvert-manager validate --stage PROD --stack stateful --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stacks, err := parseStacks(stack)
			if err != nil {
				return err
			}
			cfg, g, err := opts.compile(cmd.Context())
			if err != nil {
				return err
			}

			results := make([]bclconvert.ValidateResult, 0, len(stacks))
			for _, st := range stacks {
				tmpl, err := template.Synthesize(g, cfg, st)
				if err != nil {
					return err
				}
				res, err := validation.ValidateTemplate(st.Name(), tmpl)
				if err != nil {
					return err
				}
				results = append(results, *res)
			}
			return outputValidateResults(cmd.OutOrStdout(), results, outputFormat)
		},
	}

	cmd.Flags().StringVar(&stack, "stack", stackAll, "Stack to validate: stateful, stateless or all")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func outputValidateResults(w io.Writer, results []bclconvert.ValidateResult, format string) error {
	failed := false
	for _, r := range results {
		if !r.Success {
			failed = true
		}
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		for _, r := range results {
			if r.Success {
				fmt.Fprintf(w, "%s: validation passed, %d resources OK\n", r.Stack, r.Resources)
			} else {
				fmt.Fprintf(w, "%s: validation FAILED\n", r.Stack)
			}
			for _, errMsg := range r.Errors {
				fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
			}
			for _, warnMsg := range r.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}
