// Package permissions turns capability flags and dependency edges into IAM
// grants. Every grant names concrete resources; invoke grants are issued
// one per edge and never by wildcard.
package permissions

import (
	"sort"
	"strings"
	"sync"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/serialize"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
)

// Grant allows actions on resources.
type Grant struct {
	Sid       string
	Actions   []string
	Resources []any
}

// Statement renders the grant as a policy statement.
func (g Grant) Statement() intrinsics.PolicyStatement {
	st := intrinsics.Allow(g.Actions, g.Resources...)
	st.Sid = g.Sid
	return st
}

// Policy renders grants as a single inline policy.
func Policy(name string, grants []Grant) iam.Role_Policy {
	statements := make([]any, 0, len(grants))
	for _, g := range grants {
		statements = append(statements, g.Statement())
	}
	return iam.Role_Policy{PolicyName: name, PolicyDocument: intrinsics.NewPolicyDocument(statements...)}
}

// Invocable resolves the ARN of a function that has already been built.
type Invocable interface {
	FunctionArn(name registry.FunctionName) (any, bool)
}

// Engine derives grants and remembers them per resource.
type Engine struct {
	cfg   *config.Config
	built Invocable

	mu     sync.Mutex
	grants map[registry.ResourceSpec][]Grant
}

// NewEngine returns an engine resolving edges against built.
func NewEngine(cfg *config.Config, built Invocable) *Engine {
	return &Engine{
		cfg:    cfg,
		built:  built,
		grants: make(map[registry.ResourceSpec][]Grant),
	}
}

// Wire derives the grants of a resource: one or more per flag, then one
// invoke grant per edge. Every edge must resolve before anything is
// recorded, so a failed call leaves the engine unchanged.
func (e *Engine) Wire(spec registry.ResourceSpec, reqs registry.Requirements, edges []registry.FunctionName) ([]Grant, error) {
	if err := reqs.Validate(spec.Kind); err != nil {
		return nil, err.WithResource(spec.Name)
	}
	if len(edges) > 0 && spec.Kind != registry.KindStateMachine {
		return nil, errs.Config(errs.CodeInvalidConfig, spec.Name, "only state machines declare invoke edges")
	}

	targets := make([]any, 0, len(edges))
	for _, fn := range edges {
		arn, ok := e.built.FunctionArn(fn)
		if !ok {
			return nil, errs.Config(errs.CodeUnsatisfiedDependency, spec.Name, "edge to %s which is not built", fn)
		}
		targets = append(targets, arn)
	}

	var grants []Grant
	for _, r := range reqs {
		grants = append(grants, e.flagGrants(spec, r)...)
	}
	for i, fn := range edges {
		grants = append(grants, Grant{
			Sid:       "Invoke" + serialize.ToPascalCase(string(fn)),
			Actions:   []string{"lambda:InvokeFunction"},
			Resources: []any{targets[i]},
		})
	}

	e.mu.Lock()
	e.grants[spec] = append(e.grants[spec], grants...)
	e.mu.Unlock()
	return grants, nil
}

// Record stores grants derived outside Wire (event targets, the pipe).
func (e *Engine) Record(spec registry.ResourceSpec, grants ...Grant) {
	e.mu.Lock()
	e.grants[spec] = append(e.grants[spec], grants...)
	e.mu.Unlock()
}

// Grants returns what was recorded for spec.
func (e *Engine) Grants(spec registry.ResourceSpec) []Grant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Grant(nil), e.grants[spec]...)
}

// Resources lists every resource with recorded grants, sorted by name.
func (e *Engine) Resources() []registry.ResourceSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]registry.ResourceSpec, 0, len(e.grants))
	for s := range e.grants {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (e *Engine) flagGrants(spec registry.ResourceSpec, r registry.Requirement) []Grant {
	switch r {
	case registry.NeedsOrcabusAPITools:
		return []Grant{
			readParameters("OrcabusHostname", e.cfg.HostnameParameterName),
			readSecret("OrcabusToken", e.cfg.OrcabusTokenSecretID),
		}
	case registry.NeedsIcav2Tools:
		return []Grant{readSecret("Icav2Token", e.cfg.Icav2AccessTokenSecretID)}
	case registry.NeedsSchemaRegistryAccess:
		return []Grant{{
			Sid:     "SchemaRegistryRead",
			Actions: []string{"schemas:DescribeRegistry", "schemas:DescribeSchema"},
			Resources: []any{
				intrinsics.StackARN("schemas", "registry/"+e.cfg.SchemaRegistryName),
				intrinsics.StackARN("schemas", "schema/"+e.cfg.SchemaRegistryName+"/*"),
			},
		}}
	case registry.NeedsBsshToolsLayer:
		return []Grant{
			readParameters("BaseSpaceUrl", e.cfg.BaseSpaceURLParameterName),
			readSecret("BaseSpaceToken", e.cfg.BaseSpaceAccessTokenSecretID),
		}
	case registry.NeedsDefaultWorkflowVersion:
		return []Grant{readParameters("DefaultWorkflowVersion", config.SSMParameterPathWorkflowVersion)}
	case registry.NeedsParameterStoreAccess:
		return []Grant{readParameters("WorkflowParameters", config.SSMParameterPathPrefix+"/*")}
	case registry.NeedsEventPut:
		return []Grant{PutEvents(e.cfg.EventBusName)}
	case registry.IsExpress:
		// Log delivery actions do not support resource-level permissions.
		return []Grant{{
			Sid: "ExpressLogDelivery",
			Actions: []string{
				"logs:CreateLogDelivery",
				"logs:GetLogDelivery",
				"logs:UpdateLogDelivery",
				"logs:DeleteLogDelivery",
				"logs:ListLogDeliveries",
				"logs:PutResourcePolicy",
				"logs:DescribeResourcePolicies",
				"logs:DescribeLogGroups",
			},
			Resources: []any{"*"},
		}}
	}
	panic("permissions: unhandled requirement " + r.String() + " on " + spec.String())
}

func readParameters(sid, name string) Grant {
	return Grant{
		Sid:       sid + "Read",
		Actions:   []string{"ssm:GetParameter"},
		Resources: []any{intrinsics.StackARN("ssm", "parameter"+name)},
	}
}

func readSecret(sid, id string) Grant {
	return Grant{
		Sid:       sid + "Read",
		Actions:   []string{"secretsmanager:GetSecretValue"},
		Resources: []any{intrinsics.StackARN("secretsmanager", "secret:"+strings.TrimPrefix(id, "/")+"-*")},
	}
}

// PutEvents allows publishing to the named bus.
func PutEvents(bus string) Grant {
	return Grant{
		Sid:       "PutEvents",
		Actions:   []string{"events:PutEvents"},
		Resources: []any{intrinsics.StackARN("events", "event-bus/"+bus)},
	}
}

// StartExecution allows starting one state machine.
func StartExecution(stateMachineArn any) Grant {
	return Grant{
		Sid:       "StartExecution",
		Actions:   []string{"states:StartExecution"},
		Resources: []any{stateMachineArn},
	}
}

// ConsumeQueue allows a poller to receive and delete messages from a queue.
func ConsumeQueue(queueArn any) Grant {
	return Grant{
		Sid:       "ConsumeQueue",
		Actions:   []string{"sqs:ReceiveMessage", "sqs:DeleteMessage", "sqs:GetQueueAttributes"},
		Resources: []any{queueArn},
	}
}

// WriteLogs allows writing to one log group.
func WriteLogs(logGroupArn any) Grant {
	return Grant{
		Sid:       "WriteLogs",
		Actions:   []string{"logs:CreateLogStream", "logs:PutLogEvents"},
		Resources: []any{logGroupArn},
	}
}
