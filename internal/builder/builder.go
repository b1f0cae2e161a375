// Package builder turns resource specs and their capability flags into
// CloudFormation resources. Each flag maps to exactly one wiring action;
// the switches below are exhaustive over registry.Requirement.
package builder

import (
	"fmt"
	"sync"

	"github.com/OrcaBus/service-bclconvert-manager/internal/artifact"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/permissions"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/serialize"
	"github.com/OrcaBus/service-bclconvert-manager/internal/substitute"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
	"github.com/OrcaBus/service-bclconvert-manager/resources/lambda"
)

// Logical IDs of the shared layers. The platform layers are template
// parameters resolved from the parameter store; the BSSH layer is built here.
const (
	OrcabusAPIToolsLayerParameter = "OrcabusApiToolsLayerArn"
	Icav2ToolsLayerParameter      = "Icav2ToolsLayerArn"
	BsshToolsLayerLogicalID       = "BsshToolsLayer"
	bsshToolsLayerArtifact        = "bsshToolsLayer"
)

const lambdaBasicExecutionPolicy = "arn:${AWS::Partition}:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"

// Shared holds the inputs every build reads.
type Shared struct {
	Config    *config.Config
	Artifacts *artifact.Store
	Bindings  *substitute.Bindings
}

// Builder builds functions and state machines against one binding table.
// BuildFunction is safe to call concurrently.
type Builder struct {
	shared      Shared
	permissions *permissions.Engine

	mu        sync.RWMutex
	functions map[registry.FunctionName]*Function
}

// New returns a builder. Its permission engine resolves edges against the
// functions this builder has built.
func New(shared Shared) *Builder {
	b := &Builder{
		shared:    shared,
		functions: make(map[registry.FunctionName]*Function),
	}
	b.permissions = permissions.NewEngine(shared.Config, b)
	return b
}

// Permissions returns the engine holding every grant issued so far.
func (b *Builder) Permissions() *permissions.Engine {
	return b.permissions
}

// FunctionArn implements permissions.Invocable.
func (b *Builder) FunctionArn(name registry.FunctionName) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.functions[name]
	if !ok {
		return nil, false
	}
	return fn.Arn(), true
}

// Function returns a built function.
func (b *Builder) Function(name registry.FunctionName) (*Function, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.functions[name]
	return fn, ok
}

// FunctionLogicalID is the logical ID of a function.
func FunctionLogicalID(name registry.FunctionName) string {
	return serialize.ToPascalCase(string(name)) + "Function"
}

// StateMachineLogicalID is the logical ID of a state machine.
func StateMachineLogicalID(name registry.StateMachineName) string {
	return serialize.ToPascalCase(string(name)) + "StateMachine"
}

// FunctionBindingKey is the placeholder key bound to a function's ARN.
func FunctionBindingKey(name registry.FunctionName) string {
	return serialize.ToSnakeCase(string(name)) + "_lambda_function_arn"
}

// StateMachineBindingKey is the placeholder key bound to a state machine's ARN.
func StateMachineBindingKey(name registry.StateMachineName) string {
	return serialize.ToSnakeCase(string(name)) + "_state_machine_arn"
}

// Layer is the BSSH tools layer.
type Layer struct {
	LogicalID string
	Resource  lambda.LayerVersion
}

// BuildLayer builds the BSSH tools layer from its bundle.
func (b *Builder) BuildLayer() (*Layer, error) {
	bundle, err := b.shared.Artifacts.Layer(bsshToolsLayerArtifact)
	if err != nil {
		return nil, err
	}
	return &Layer{
		LogicalID: BsshToolsLayerLogicalID,
		Resource: lambda.LayerVersion{
			Description: bundle.Description,
			Content: lambda.LayerVersion_Content{
				S3Bucket: b.shared.Config.ArtifactBucket,
				S3Key:    bundle.Key,
			},
			CompatibleRuntimes:      []string{config.FunctionRuntime},
			CompatibleArchitectures: []string{config.FunctionArchitecture},
		},
	}, nil
}

func roleFor(service, policyName string, grants []permissions.Grant, managed ...any) iam.Role {
	role := iam.Role{
		AssumeRolePolicyDocument: intrinsics.AssumeRoleDocument(service),
		ManagedPolicyArns:        managed,
	}
	if len(grants) > 0 {
		role.Policies = []iam.Role_Policy{permissions.Policy(policyName, grants)}
	}
	return role
}

func unexpected(spec registry.ResourceSpec, r registry.Requirement) error {
	return errs.Config(errs.CodeUnrecognizedRequirement, spec.Name, "%s has no wiring for %s", r, spec.Kind)
}

func describe(spec registry.ResourceSpec, grants []permissions.Grant) string {
	return fmt.Sprintf("%s (%d grants)", spec, len(grants))
}
