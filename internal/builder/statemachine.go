package builder

import (
	"errors"
	"strconv"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/permissions"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/substitute"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
	"github.com/OrcaBus/service-bclconvert-manager/resources/logs"
	"github.com/OrcaBus/service-bclconvert-manager/resources/stepfunctions"
)

// StateMachine is a built state machine, its role and, for express
// machines, its log group.
type StateMachine struct {
	Name          registry.StateMachineName
	Requirements  registry.Requirements
	Edges         []registry.FunctionName
	LogicalID     string
	RoleLogicalID string
	Resource      stepfunctions.StateMachine
	Role          iam.Role
	Grants        []permissions.Grant

	// LogGroup is set for express machines only.
	LogGroup          *logs.LogGroup
	LogGroupLogicalID string

	// Bindings is the scoped table the definition was resolved against.
	Bindings substitute.Map
	Document substitute.ResolvedDocument
}

// Arn references the state machine's ARN.
func (s *StateMachine) Arn() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: s.LogicalID}
}

// DependsOn lists the logical IDs the state machine references.
func (s *StateMachine) DependsOn() []string {
	deps := []string{s.RoleLogicalID}
	if s.LogGroup != nil {
		deps = append(deps, s.LogGroupLogicalID)
	}
	for _, fn := range s.Edges {
		deps = append(deps, FunctionLogicalID(fn))
	}
	return deps
}

// String describes the state machine and its grant count.
func (s *StateMachine) String() string {
	return describe(s.Name.Spec(), s.Grants)
}

// BuildStateMachine builds a state machine. Every edge must name a function
// this builder has already built; otherwise it fails before any
// substitution or wiring happens.
func (b *Builder) BuildStateMachine(name registry.StateMachineName, reqs registry.Requirements, edges []registry.FunctionName) (*StateMachine, error) {
	spec := name.Spec()
	if err := reqs.Validate(registry.KindStateMachine); err != nil {
		return nil, err.WithResource(spec.Name)
	}

	edgeKeys := make([]string, 0, len(edges))
	for _, fn := range edges {
		if _, ok := b.FunctionArn(fn); !ok {
			return nil, errs.Config(errs.CodeUnsatisfiedDependency, spec.Name, "edge to %s which is not built", fn)
		}
		edgeKeys = append(edgeKeys, FunctionBindingKey(fn))
	}

	scoped, err := b.shared.Bindings.Select(spec.Name, edgeKeys...)
	if err != nil {
		return nil, err
	}

	cfg := b.shared.Config
	scoped["succeeded_status"] = config.SucceededStatus
	scoped["draft_status"] = config.DraftStatus

	logicalID := StateMachineLogicalID(name)
	sm := &StateMachine{
		Name:          name,
		Requirements:  reqs,
		Edges:         append([]registry.FunctionName(nil), edges...),
		LogicalID:     logicalID,
		RoleLogicalID: logicalID + "Role",
		Resource: stepfunctions.StateMachine{
			StateMachineName: config.StateMachineName(spec.Name),
			StateMachineType: stepfunctions.TypeStandard,
			RoleArn:          intrinsics.Arn(logicalID + "Role"),
		},
	}

	for _, r := range reqs {
		switch r {
		case registry.NeedsEventPut:
			scoped["event_bus_name"] = cfg.EventBusName
			scoped["workflow_run_state_change_event_detail_type"] = config.WorkflowRunStateChangeDetailType
			scoped["workflow_run_update_event_detail_type"] = config.WorkflowRunUpdateDetailType
			scoped["stack_source"] = config.EventSource
			scoped["ready_event_status"] = config.ReadyStatus
			scoped["draft_event_status"] = config.DraftStatus
			scoped["new_workflow_manager_is_deployed"] = strconv.FormatBool(cfg.NewWorkflowManagerDeployed)
			scoped["default_payload_version"] = cfg.PayloadVersion
		case registry.NeedsParameterStoreAccess:
			scoped["valid_pipeline_id_list_ssm_parameter_name"] = config.SSMParameterPathPipelineIDs
		case registry.IsExpress:
			sm.LogGroupLogicalID = logicalID + "LogGroup"
			sm.LogGroup = &logs.LogGroup{RetentionInDays: config.ExpressLogRetentionDays}
			sm.Resource.StateMachineType = stepfunctions.TypeExpress
			sm.Resource.LoggingConfiguration = &stepfunctions.StateMachine_LoggingConfiguration{
				Level:                "ALL",
				IncludeExecutionData: true,
				Destinations: []stepfunctions.StateMachine_LogDestination{{
					CloudWatchLogsLogGroup: stepfunctions.StateMachine_CloudWatchLogsLogGroup{
						LogGroupArn: intrinsics.Arn(sm.LogGroupLogicalID),
					},
				}},
			}
		case registry.NeedsOrcabusAPITools, registry.NeedsIcav2Tools, registry.NeedsSchemaRegistryAccess,
			registry.NeedsBsshToolsLayer, registry.NeedsDefaultWorkflowVersion:
			return nil, unexpected(spec, r)
		default:
			return nil, unexpected(spec, r)
		}
	}

	raw, err := b.shared.Artifacts.Definition(spec.Name)
	if err != nil {
		return nil, err
	}
	doc, err := substitute.Resolve(raw, scoped)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, e.WithResource(spec.Name)
		}
		return nil, err
	}
	sm.Bindings = scoped
	sm.Document = doc
	sm.Resource.DefinitionString = doc.Definition()

	grants, err := b.permissions.Wire(spec, reqs, edges)
	if err != nil {
		return nil, err
	}
	sm.Grants = grants
	sm.Role = roleFor("states.amazonaws.com", logicalID+"Policy", grants)

	if err := b.shared.Bindings.Bind(StateMachineBindingKey(name), sm.Arn()); err != nil {
		return nil, err
	}
	return sm, nil
}
