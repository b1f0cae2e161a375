// Package orchestrator drives one build of the provisioning graph:
// functions in parallel, then state machines, event rules and their
// targets, and finally the ingestion pipe.
//
// Any failure aborts the build and no partial graph is returned.
package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/OrcaBus/service-bclconvert-manager/internal/artifact"
	"github.com/OrcaBus/service-bclconvert-manager/internal/builder"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/logging"
	"github.com/OrcaBus/service-bclconvert-manager/internal/parameters"
	"github.com/OrcaBus/service-bclconvert-manager/internal/permissions"
	"github.com/OrcaBus/service-bclconvert-manager/internal/pipe"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/routing"
	"github.com/OrcaBus/service-bclconvert-manager/internal/serialize"
	"github.com/OrcaBus/service-bclconvert-manager/internal/substitute"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
)

// Orchestrator runs a single build. Create a new one per build.
type Orchestrator struct {
	cfg       *config.Config
	artifacts *artifact.Store
	log       zerolog.Logger
	logSet    bool

	mu      sync.Mutex
	state   State
	started bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Without it, Run uses the logger carried by
// its context.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = logging.Component(l, "orchestrator")
		o.logSet = true
	}
}

// New returns an orchestrator in the Init state.
func New(cfg *config.Config, artifacts *artifact.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		artifacts: artifacts,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run builds the graph. It may be called once.
func (o *Orchestrator) Run(ctx context.Context) (*Graph, error) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil, errs.Config(errs.CodeInvalidTransition, "", "run from %s", o.state)
	}
	o.started = true
	if !o.logSet {
		o.log = logging.Component(logging.FromContext(ctx), "orchestrator")
	}
	o.mu.Unlock()

	if err := registry.Check(); err != nil {
		return nil, err
	}

	bindings := substitute.NewBindings()
	b := builder.New(builder.Shared{Config: o.cfg, Artifacts: o.artifacts, Bindings: bindings})
	g := &Graph{
		Revision:    o.cfg.RouteRevision,
		Bindings:    bindings,
		Permissions: b.Permissions(),
	}

	params, err := parameters.Build(o.cfg)
	if err != nil {
		return nil, err
	}
	g.Parameters = params

	if g.Layer, err = b.BuildLayer(); err != nil {
		return nil, err
	}

	steps := []struct {
		to  State
		run func(context.Context, *builder.Builder, *Graph) error
	}{
		{StateFunctionsBuilt, o.buildFunctions},
		{StateStateMachinesBuilt, o.buildStateMachines},
		{StateRulesBuilt, o.buildRules},
		{StateTargetsWired, o.wireTargets},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(ctx, b, g); err != nil {
			o.log.Error().Err(err).Str("state", o.State().String()).Msg("build aborted")
			return nil, err
		}
		if err := o.advance(step.to); err != nil {
			return nil, err
		}
	}

	if err := o.advance(StateDone); err != nil {
		return nil, err
	}
	return g, nil
}

// Functions have no dependencies on each other and build concurrently. The
// group's Wait is the barrier state machines start behind.
func (o *Orchestrator) buildFunctions(ctx context.Context, b *builder.Builder, g *Graph) error {
	names := registry.Functions()
	built := make([]*builder.Function, len(names))

	eg, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reqs, err := registry.FunctionRequirements(name)
			if err != nil {
				return err
			}
			fn, err := b.BuildFunction(name, reqs)
			if err != nil {
				return err
			}
			o.log.Debug().Str("resource", string(name)).Str("kind", registry.KindFunction.String()).
				Int("grants", len(fn.Grants)).Msg("built")
			built[i] = fn
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.Functions = built
	return nil
}

func (o *Orchestrator) buildStateMachines(_ context.Context, b *builder.Builder, g *Graph) error {
	for _, name := range registry.StateMachines() {
		reqs, err := registry.StateMachineRequirements(name)
		if err != nil {
			return err
		}
		edges, err := registry.Edges(name)
		if err != nil {
			return err
		}
		sm, err := b.BuildStateMachine(name, reqs, edges)
		if err != nil {
			return err
		}
		o.log.Debug().Str("resource", string(name)).Str("kind", registry.KindStateMachine.String()).
			Int("grants", len(sm.Grants)).Int("edges", len(edges)).Msg("built")
		g.StateMachines = append(g.StateMachines, sm)
	}

	g.Bindings.Freeze()
	return nil
}

func (o *Orchestrator) buildRules(_ context.Context, _ *builder.Builder, g *Graph) error {
	router, err := routing.NewRouter(g.Revision)
	if err != nil {
		return err
	}

	for _, rule := range router.Rules() {
		if _, ok := g.StateMachine(rule.Target); !ok {
			return errs.Config(errs.CodeUnsatisfiedDependency, rule.Name, "target %s was not built", rule.Target)
		}
		logicalID := serialize.ToPascalCase(rule.Name)
		g.Routes = append(g.Routes, &Route{
			Rule:                rule,
			LogicalID:           logicalID,
			TargetRoleLogicalID: serialize.ToPascalCase(rule.TargetSpec().Name) + "Role",
		})
		o.log.Debug().Str("resource", rule.Name).Str("kind", registry.KindEventRule.String()).
			Str("target", string(rule.Target)).Msg("built")
	}
	return nil
}

// Each target gets its own role allowed to start only its state machine.
// The pipe is wired here too: it is the other entry point into a machine.
func (o *Orchestrator) wireTargets(_ context.Context, b *builder.Builder, g *Graph) error {
	engine := b.Permissions()

	for _, r := range g.Routes {
		sm, _ := g.StateMachine(r.Rule.Target)
		grant := permissions.StartExecution(sm.Arn())
		r.Grants = []permissions.Grant{grant}
		r.TargetRole = iam.Role{
			AssumeRolePolicyDocument: intrinsics.AssumeRoleDocument("events.amazonaws.com"),
			Policies:                 []iam.Role_Policy{permissions.Policy(r.TargetRoleLogicalID+"Policy", r.Grants)},
		}
		r.Resource = r.Rule.Resource(o.cfg.EventBusName, sm.Arn(), intrinsics.Arn(r.TargetRoleLogicalID))
		engine.Record(r.Rule.TargetSpec(), grant)
		o.log.Debug().Str("resource", r.Rule.TargetSpec().Name).Str("kind", registry.KindEventTarget.String()).
			Int("grants", 1).Msg("wired")
	}

	g.PipeConfig = pipe.FromStage(o.cfg)
	res, err := pipe.Synthesize(g.PipeConfig)
	if err != nil {
		return err
	}
	if _, ok := g.StateMachine(g.PipeConfig.Target); !ok {
		return errs.Config(errs.CodeUnsatisfiedDependency, g.PipeConfig.PipeName, "target %s was not built", g.PipeConfig.Target)
	}
	g.Pipe = res
	engine.Record(g.PipeConfig.Spec(), res.Grants...)
	o.log.Debug().Str("resource", g.PipeConfig.PipeName).Str("kind", registry.KindIngestionPipe.String()).
		Int("grants", len(res.Grants)).Msg("wired")
	return nil
}
