package orchestrator

import (
	"github.com/OrcaBus/service-bclconvert-manager/internal/builder"
	"github.com/OrcaBus/service-bclconvert-manager/internal/parameters"
	"github.com/OrcaBus/service-bclconvert-manager/internal/permissions"
	"github.com/OrcaBus/service-bclconvert-manager/internal/pipe"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/routing"
	"github.com/OrcaBus/service-bclconvert-manager/internal/substitute"
	"github.com/OrcaBus/service-bclconvert-manager/resources/events"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
)

// Graph is the fully wired provisioning graph.
type Graph struct {
	Revision      string
	Parameters    []parameters.Parameter
	Layer         *builder.Layer
	Functions     []*builder.Function
	StateMachines []*builder.StateMachine
	Routes        []*Route
	Pipe          *pipe.Resources
	PipeConfig    pipe.Config

	// Bindings is frozen.
	Bindings    *substitute.Bindings
	Permissions *permissions.Engine
}

// Route is an event rule, its state machine target and the role the target
// assumes.
type Route struct {
	Rule                routing.Rule
	LogicalID           string
	TargetRoleLogicalID string
	Resource            events.Rule
	TargetRole          iam.Role
	Grants              []permissions.Grant
}

// DependsOn lists the logical IDs the rule references.
func (r *Route) DependsOn() []string {
	return []string{r.TargetRoleLogicalID, builder.StateMachineLogicalID(r.Rule.Target)}
}

// StateMachine returns a built state machine by name.
func (g *Graph) StateMachine(name registry.StateMachineName) (*builder.StateMachine, bool) {
	for _, sm := range g.StateMachines {
		if sm.Name == name {
			return sm, true
		}
	}
	return nil, false
}

// Specs lists every provisioned resource spec in build order.
func (g *Graph) Specs() []registry.ResourceSpec {
	var out []registry.ResourceSpec
	for _, fn := range g.Functions {
		out = append(out, fn.Name.Spec())
	}
	for _, sm := range g.StateMachines {
		out = append(out, sm.Name.Spec())
	}
	for _, r := range g.Routes {
		out = append(out, r.Rule.Spec(), r.Rule.TargetSpec())
	}
	if g.Pipe != nil {
		out = append(out, g.PipeConfig.Spec())
	}
	return out
}
