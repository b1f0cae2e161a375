package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/internal/orchestrator"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		requires     []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources and their requirements",
		Long: `List compiles the service and shows every function, state machine, event
rule and pipe with the capability flags it was declared with.

--requires keeps only the functions and state machines declaring every named
flag; an unknown flag name is an error.

Examples:
    bclconvert-manager list
    bclconvert-manager list --requires needsEventPutPermission
    bclconvert-manager list --stage PROD --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := registry.ParseRequirements(requires...)
			if err != nil {
				return err
			}
			_, g, err := opts.compile(cmd.Context())
			if err != nil {
				return err
			}
			return outputList(cmd.OutOrStdout(), listEntries(g, filter), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&requires, "requires", nil, "Only list resources declaring these flags")

	return cmd
}

// listEntry is one declared resource with its flags and outgoing edges.
type listEntry struct {
	spec  registry.ResourceSpec
	reqs  registry.Requirements
	edges []string
}

// listEntries flattens a graph in build order. A non-empty filter keeps
// only functions and state machines declaring every flag in it.
func listEntries(g *orchestrator.Graph, filter registry.Requirements) []listEntry {
	var out []listEntry

	for _, fn := range g.Functions {
		out = append(out, listEntry{spec: fn.Name.Spec(), reqs: fn.Requirements})
	}
	for _, sm := range g.StateMachines {
		edges := make([]string, len(sm.Edges))
		for i, e := range sm.Edges {
			edges[i] = string(e)
		}
		out = append(out, listEntry{spec: sm.Name.Spec(), reqs: sm.Requirements, edges: edges})
	}

	if len(filter) > 0 {
		kept := out[:0]
		for _, e := range out {
			if hasAll(e.reqs, filter) {
				kept = append(kept, e)
			}
		}
		return kept
	}

	for _, r := range g.Routes {
		out = append(out, listEntry{spec: r.Rule.Spec(), edges: []string{string(r.Rule.Target)}})
	}
	if g.Pipe != nil {
		out = append(out, listEntry{spec: g.PipeConfig.Spec(), edges: []string{string(g.PipeConfig.Target)}})
	}
	return out
}

func hasAll(reqs, filter registry.Requirements) bool {
	for _, r := range filter {
		if !reqs.Has(r) {
			return false
		}
	}
	return true
}

func listResult(entries []listEntry) bclconvert.ListResult {
	result := bclconvert.ListResult{Resources: make([]bclconvert.ListResource, 0, len(entries))}
	for _, e := range entries {
		var names []string
		for _, r := range e.reqs {
			names = append(names, r.String())
		}
		result.Resources = append(result.Resources, bclconvert.ListResource{
			Name:         e.spec.Name,
			Kind:         e.spec.Kind.String(),
			Requirements: names,
			Edges:        e.edges,
		})
	}
	return result
}

func outputList(w io.Writer, entries []listEntry, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(listResult(entries), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(entries) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Declared resources (%d):\n\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(w, "  %s", registry.Describe(e.spec, e.reqs))
			if len(e.edges) > 0 {
				fmt.Fprintf(w, " -> %s", strings.Join(e.edges, ", "))
			}
			fmt.Fprintln(w)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
