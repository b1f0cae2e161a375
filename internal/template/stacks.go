package template

import (
	"fmt"
	"strings"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/internal/builder"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/orchestrator"
	"github.com/OrcaBus/service-bclconvert-manager/internal/pipe"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
)

// Stack selects which half of the graph a template holds.
type Stack string

const (
	// Stateful holds resources that keep data or in-flight messages: the
	// parameter store entries, the ingestion queue and the pipe.
	Stateful Stack = "stateful"
	// Stateless holds everything that can be replaced freely.
	Stateless Stack = "stateless"
)

// Stacks lists every stack in deployment order.
var Stacks = []Stack{Stateful, Stateless}

// ParseStack parses a stack name.
func ParseStack(s string) (Stack, error) {
	switch Stack(strings.ToLower(s)) {
	case Stateful:
		return Stateful, nil
	case Stateless:
		return Stateless, nil
	}
	return "", errs.Config(errs.CodeInvalidConfig, s, "unknown stack (want stateful or stateless)")
}

// Name is the deployed CloudFormation stack name.
func (s Stack) Name() string {
	if s == Stateful {
		return config.StatefulStackName
	}
	return config.StatelessStackName
}

// Synthesize renders one stack of a built graph.
func Synthesize(g *orchestrator.Graph, cfg *config.Config, stack Stack) (*bclconvert.Template, error) {
	var (
		b   *Builder
		err error
	)
	switch stack {
	case Stateful:
		b, err = stateful(g, cfg)
	case Stateless:
		b, err = stateless(g, cfg)
	default:
		return nil, errs.Config(errs.CodeInvalidConfig, string(stack), "unknown stack")
	}
	if err != nil {
		return nil, fmt.Errorf("synthesizing %s stack: %w", stack, err)
	}
	return b.Build()
}

func stateful(g *orchestrator.Graph, cfg *config.Config) (*Builder, error) {
	b := NewBuilder(fmt.Sprintf("BCLConvert manager stateful resources (%s)", cfg.Stage))

	for _, p := range g.Parameters {
		if err := b.Add(p.LogicalID, p.Resource); err != nil {
			return nil, err
		}
	}

	if g.Pipe == nil {
		return nil, errs.Config(errs.CodeUnsatisfiedDependency, g.PipeConfig.PipeName, "pipe was not wired")
	}
	deps := pipe.DependsOn()
	p := g.Pipe
	for _, r := range []struct {
		id  string
		res bclconvert.Resource
	}{
		{pipe.DeadLetterQueueLogicalID, p.DeadLetterQueue},
		{pipe.QueueLogicalID, p.Queue},
		{pipe.QueuePolicyLogicalID, p.QueuePolicy},
		{pipe.AlarmLogicalID, p.Alarm},
		{pipe.LogGroupLogicalID, p.LogGroup},
		{pipe.RoleLogicalID, p.Role},
		{pipe.PipeLogicalID, p.Pipe},
	} {
		if err := b.Add(r.id, r.res, deps[r.id]...); err != nil {
			return nil, err
		}
	}

	b.AddOutput("IcaQueueArn", bclconvert.Output{
		Description: "Queue ICA analysis events are delivered to",
		Value:       intrinsics.Arn(pipe.QueueLogicalID),
		Export:      &bclconvert.Export{Name: config.StackPrefix + "-ica-queue-arn"},
	})
	return b, nil
}

func stateless(g *orchestrator.Graph, cfg *config.Config) (*Builder, error) {
	b := NewBuilder(fmt.Sprintf("BCLConvert manager stateless resources (%s)", cfg.Stage))

	b.AddParameter(builder.OrcabusAPIToolsLayerParameter, bclconvert.Parameter{
		Type:        "AWS::SSM::Parameter::Value<String>",
		Description: "ARN of the shared OrcaBus API tools layer",
		Default:     cfg.OrcabusAPIToolsLayerParameter,
	})
	b.AddParameter(builder.Icav2ToolsLayerParameter, bclconvert.Parameter{
		Type:        "AWS::SSM::Parameter::Value<String>",
		Description: "ARN of the shared ICAv2 tools layer",
		Default:     cfg.Icav2ToolsLayerParameter,
	})

	if g.Layer != nil {
		if err := b.Add(g.Layer.LogicalID, g.Layer.Resource); err != nil {
			return nil, err
		}
	}

	for _, fn := range g.Functions {
		if err := b.Add(fn.RoleLogicalID, fn.Role); err != nil {
			return nil, err
		}
		if err := b.Add(fn.LogicalID, fn.Resource, fn.DependsOn()...); err != nil {
			return nil, err
		}
	}

	for _, sm := range g.StateMachines {
		roleDeps := make([]string, 0, len(sm.Edges))
		for _, fn := range sm.Edges {
			roleDeps = append(roleDeps, builder.FunctionLogicalID(fn))
		}
		if err := b.Add(sm.RoleLogicalID, sm.Role, roleDeps...); err != nil {
			return nil, err
		}
		if sm.LogGroup != nil {
			if err := b.Add(sm.LogGroupLogicalID, *sm.LogGroup); err != nil {
				return nil, err
			}
		}
		if err := b.Add(sm.LogicalID, sm.Resource, sm.DependsOn()...); err != nil {
			return nil, err
		}
		b.AddOutput(sm.LogicalID+"Arn", bclconvert.Output{
			Description: "ARN of " + config.StateMachineName(string(sm.Name)),
			Value:       sm.Arn(),
		})
	}

	for _, r := range g.Routes {
		if err := b.Add(r.TargetRoleLogicalID, r.TargetRole, builder.StateMachineLogicalID(r.Rule.Target)); err != nil {
			return nil, err
		}
		if err := b.Add(r.LogicalID, r.Resource, r.DependsOn()...); err != nil {
			return nil, err
		}
	}

	return b, nil
}
