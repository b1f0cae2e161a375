package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OrcaBus/service-bclconvert-manager/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat  string
		includeLayers bool
		clusterByKind bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a graph of the wired resources",
		Long: `Generate a DOT or Mermaid graph of functions, state machines, event rules
and the ingestion pipe, with invoke and start edges.

The output can be rendered with Graphviz:
    bclconvert-manager graph | dot -Tpng -o bclconvert.png

Examples:
    bclconvert-manager graph
    bclconvert-manager graph -l              # include layers
    bclconvert-manager graph -c              # cluster by kind
    bclconvert-manager graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, g, err := opts.compile(cmd.Context())
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:        graphFormat,
				IncludeLayers: includeLayers,
				ClusterByKind: clusterByKind,
			}
			return gen.Generate(g, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeLayers, "layers", "l", false, "Include layer nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByKind, "cluster", "c", false, "Cluster resources by kind")

	return cmd
}
