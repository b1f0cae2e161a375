// Package registry holds the static capability tables: which functions and
// state machines exist, what each one requires, and which functions each
// state machine may invoke.
//
// The tables are built once at package initialisation and never mutated.
// Accessors return copies.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// Kind is the closed set of resource kinds the compiler provisions.
type Kind int

const (
	KindFunction Kind = iota + 1
	KindStateMachine
	KindEventRule
	KindEventTarget
	KindIngestionPipe
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "Function"
	case KindStateMachine:
		return "StateMachine"
	case KindEventRule:
		return "EventRule"
	case KindEventTarget:
		return "EventTarget"
	case KindIngestionPipe:
		return "IngestionPipe"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ResourceSpec identifies a resource. Names are unique within a kind.
type ResourceSpec struct {
	Name string
	Kind Kind
}

func (s ResourceSpec) String() string {
	return s.Kind.String() + "/" + s.Name
}

// FunctionName names a compute function.
type FunctionName string

const (
	CreateNewWorkflowRunObject               FunctionName = "createNewWorkflowRunObject"
	FindWorkflow                             FunctionName = "findWorkflow"
	GetSequenceRunObject                     FunctionName = "getSequenceRunObject"
	UpdateWorkflowRunObject                  FunctionName = "updateWorkflowRunObject"
	ValidateDraftDataCompleteSchema          FunctionName = "validateDraftDataCompleteSchema"
	CheckSamplesheetInSrm                    FunctionName = "checkSamplesheetInSrm"
	AddSamplesheetToSrm                      FunctionName = "addSamplesheetToSrm"
	CreateBclconvertWorkflowDraftEventDetail FunctionName = "createBclconvertWorkflowDraftEventDetail"
	FindWorkflowsByInstrumentRunID           FunctionName = "findWorkflowsByInstrumentRunId"
)

// Spec returns the function's resource spec.
func (n FunctionName) Spec() ResourceSpec {
	return ResourceSpec{Name: string(n), Kind: KindFunction}
}

// StateMachineName names a workflow state machine.
type StateMachineName string

const (
	HandleIcaEvent       StateMachineName = "handleIcaEvent"
	HandleSrmEvent       StateMachineName = "handleSrmEvent"
	ValidateDraftToReady StateMachineName = "validateDraftToReady"
)

// Spec returns the state machine's resource spec.
func (n StateMachineName) Spec() ResourceSpec {
	return ResourceSpec{Name: string(n), Kind: KindStateMachine}
}

type stateMachineEntry struct {
	requirements Requirements
	edges        []FunctionName
}

var (
	functionOrder = []FunctionName{
		CreateNewWorkflowRunObject,
		FindWorkflow,
		GetSequenceRunObject,
		UpdateWorkflowRunObject,
		ValidateDraftDataCompleteSchema,
		CheckSamplesheetInSrm,
		AddSamplesheetToSrm,
		CreateBclconvertWorkflowDraftEventDetail,
		FindWorkflowsByInstrumentRunID,
	}

	functionTable = map[FunctionName]Requirements{
		// Shared SRM / ICA functions
		CreateNewWorkflowRunObject: NewRequirements(NeedsOrcabusAPITools, NeedsIcav2Tools, NeedsParameterStoreAccess, NeedsDefaultWorkflowVersion),
		FindWorkflow:               NewRequirements(NeedsOrcabusAPITools, NeedsIcav2Tools),
		GetSequenceRunObject:       NewRequirements(NeedsOrcabusAPITools),
		UpdateWorkflowRunObject:    NewRequirements(NeedsOrcabusAPITools, NeedsIcav2Tools),
		// Validation
		ValidateDraftDataCompleteSchema: NewRequirements(NeedsSchemaRegistryAccess, NeedsParameterStoreAccess),
		// Sample sheet handling
		CheckSamplesheetInSrm:                    NewRequirements(NeedsOrcabusAPITools, NeedsIcav2Tools, NeedsBsshToolsLayer),
		AddSamplesheetToSrm:                      NewRequirements(NeedsOrcabusAPITools, NeedsBsshToolsLayer),
		CreateBclconvertWorkflowDraftEventDetail: NewRequirements(NeedsOrcabusAPITools, NeedsParameterStoreAccess, NeedsDefaultWorkflowVersion, NeedsBsshToolsLayer),
		FindWorkflowsByInstrumentRunID:           NewRequirements(NeedsOrcabusAPITools),
	}

	stateMachineOrder = []StateMachineName{
		HandleIcaEvent,
		HandleSrmEvent,
		ValidateDraftToReady,
	}

	stateMachineTable = map[StateMachineName]stateMachineEntry{
		HandleIcaEvent: {
			requirements: NewRequirements(NeedsParameterStoreAccess, NeedsEventPut, IsExpress),
			edges: []FunctionName{
				CreateNewWorkflowRunObject,
				FindWorkflow,
				GetSequenceRunObject,
				UpdateWorkflowRunObject,
			},
		},
		HandleSrmEvent: {
			requirements: NewRequirements(NeedsEventPut),
			edges: []FunctionName{
				GetSequenceRunObject,
				CheckSamplesheetInSrm,
				AddSamplesheetToSrm,
				FindWorkflowsByInstrumentRunID,
				CreateBclconvertWorkflowDraftEventDetail,
			},
		},
		ValidateDraftToReady: {
			requirements: NewRequirements(NeedsEventPut),
			edges: []FunctionName{
				ValidateDraftDataCompleteSchema,
			},
		},
	}
)

// Functions returns every function name in declaration order.
func Functions() []FunctionName {
	return append([]FunctionName(nil), functionOrder...)
}

// StateMachines returns every state machine name in declaration order.
func StateMachines() []StateMachineName {
	return append([]StateMachineName(nil), stateMachineOrder...)
}

// FunctionRequirements returns the declared requirements of a function.
func FunctionRequirements(name FunctionName) (Requirements, error) {
	reqs, ok := functionTable[name]
	if !ok {
		return nil, errs.Config(errs.CodeArtifactNotFound, string(name), "no function named %q", name)
	}
	return reqs.clone(), nil
}

// StateMachineRequirements returns the declared requirements of a state machine.
func StateMachineRequirements(name StateMachineName) (Requirements, error) {
	entry, ok := stateMachineTable[name]
	if !ok {
		return nil, errs.Config(errs.CodeArtifactNotFound, string(name), "no state machine named %q", name)
	}
	return entry.requirements.clone(), nil
}

// Edges returns, in declaration order, the functions a state machine may invoke.
func Edges(name StateMachineName) ([]FunctionName, error) {
	entry, ok := stateMachineTable[name]
	if !ok {
		return nil, errs.Config(errs.CodeArtifactNotFound, string(name), "no state machine named %q", name)
	}
	return append([]FunctionName(nil), entry.edges...), nil
}

// Check verifies the tables: every flag is recognised for its kind and every
// edge names a declared function.
func Check() error {
	for _, fn := range functionOrder {
		reqs, ok := functionTable[fn]
		if !ok {
			return errs.Config(errs.CodeInvalidConfig, string(fn), "function listed without requirements")
		}
		if err := reqs.Validate(KindFunction); err != nil {
			return err.WithResource(string(fn))
		}
	}
	for _, sm := range stateMachineOrder {
		entry, ok := stateMachineTable[sm]
		if !ok {
			return errs.Config(errs.CodeInvalidConfig, string(sm), "state machine listed without requirements")
		}
		if err := entry.requirements.Validate(KindStateMachine); err != nil {
			return err.WithResource(string(sm))
		}
		for _, fn := range entry.edges {
			if _, ok := functionTable[fn]; !ok {
				return errs.Config(errs.CodeUnsatisfiedDependency, string(sm), "edge to undeclared function %q", fn)
			}
		}
	}
	return nil
}

// Describe renders a one-line summary of a resource and its flags.
func Describe(spec ResourceSpec, reqs Requirements) string {
	names := make([]string, 0, len(reqs))
	for _, r := range reqs {
		names = append(names, r.String())
	}
	sort.Strings(names)
	return fmt.Sprintf("%s [%s]", spec, strings.Join(names, ","))
}
