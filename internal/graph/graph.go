// Package graph renders the provisioning graph in DOT or Mermaid format:
// which rules and pipes start which state machines, and which functions
// each state machine may invoke.
package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"

	"github.com/OrcaBus/service-bclconvert-manager/internal/builder"
	"github.com/OrcaBus/service-bclconvert-manager/internal/orchestrator"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates graphs from a built provisioning graph.
type Generator struct {
	// IncludeLayers adds the shared layers and links each function to the
	// layers its flags pull in.
	IncludeLayers bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByKind groups nodes by resource kind.
	ClusterByKind bool
}

// Generate writes the graph of g to w.
func (gen *Generator) Generate(g *orchestrator.Graph, w io.Writer) error {
	graph := gen.buildGraph(g)

	var output string
	if gen.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (gen *Generator) GenerateString(g *orchestrator.Graph) (string, error) {
	var sb strings.Builder
	if err := gen.Generate(g, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (gen *Generator) buildGraph(g *orchestrator.Graph) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "LR")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	parent := func(kind registry.Kind) *dot.Graph {
		if !gen.ClusterByKind {
			return graph
		}
		cluster := graph.Subgraph(kind.String(), dot.ClusterOption{})
		cluster.Attr("label", kind.String())
		cluster.Attr("style", "rounded")
		return cluster
	}

	nodes := make(map[string]dot.Node)
	add := func(spec registry.ResourceSpec, shape string) dot.Node {
		n := parent(spec.Kind).Node(spec.Name)
		n.Label(spec.Name + "\\n[" + spec.Kind.String() + "]")
		if shape != "" {
			n.Attr("shape", shape)
		}
		nodes[spec.Name] = n
		return n
	}

	for _, fn := range g.Functions {
		add(fn.Name.Spec(), "")
	}
	for _, sm := range g.StateMachines {
		n := add(sm.Name.Spec(), "component")
		if sm.LogGroup != nil {
			n.Attr("style", "bold")
		}
		for _, fn := range sm.Edges {
			graph.Edge(n, nodes[string(fn)], "invoke").Attr("color", "blue")
		}
	}
	for _, r := range g.Routes {
		n := add(r.Rule.Spec(), "hexagon")
		graph.Edge(n, nodes[string(r.Rule.Target)], r.Rule.Shape.String())
	}
	if g.Pipe != nil {
		n := add(g.PipeConfig.Spec(), "cds")
		graph.Edge(n, nodes[string(g.PipeConfig.Target)], "start").Attr("style", "dashed")
	}

	if gen.IncludeLayers {
		gen.addLayers(graph, g, nodes)
	}

	return graph
}

func (gen *Generator) addLayers(graph *dot.Graph, g *orchestrator.Graph, nodes map[string]dot.Node) {
	layer := func(name string) dot.Node {
		n := graph.Node(name)
		n.Attr("shape", "ellipse")
		n.Attr("style", "dashed")
		return n
	}

	flags := []struct {
		flag  registry.Requirement
		layer string
	}{
		{registry.NeedsOrcabusAPITools, builder.OrcabusAPIToolsLayerParameter},
		{registry.NeedsIcav2Tools, builder.Icav2ToolsLayerParameter},
		{registry.NeedsBsshToolsLayer, builder.BsshToolsLayerLogicalID},
	}
	for _, fn := range g.Functions {
		for _, f := range flags {
			if fn.Requirements.Has(f.flag) {
				graph.Edge(nodes[string(fn.Name)], layer(f.layer)).Attr("style", "dotted")
			}
		}
	}
}
