package permissions

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
)

type builtFunctions map[registry.FunctionName]bool

func (b builtFunctions) FunctionArn(name registry.FunctionName) (any, bool) {
	if !b[name] {
		return nil, false
	}
	return intrinsics.Arn(string(name) + "Function"), true
}

func allBuilt() builtFunctions {
	b := builtFunctions{}
	for _, fn := range registry.Functions() {
		b[fn] = true
	}
	return b
}

func testConfig() *config.Config {
	cfg := config.Default(config.StageBeta)
	return &cfg
}

func actions(grants []Grant) []string {
	var out []string
	for _, g := range grants {
		out = append(out, g.Actions...)
	}
	return out
}

func TestWire_StateMachineLeastPrivilege(t *testing.T) {
	engine := NewEngine(testConfig(), allBuilt())

	for _, sm := range registry.StateMachines() {
		t.Run(string(sm), func(t *testing.T) {
			reqs, err := registry.StateMachineRequirements(sm)
			require.NoError(t, err)
			edges, err := registry.Edges(sm)
			require.NoError(t, err)

			grants, err := engine.Wire(sm.Spec(), reqs, edges)
			require.NoError(t, err)

			var invoked []any
			for _, g := range grants {
				for _, a := range g.Actions {
					if a != "lambda:InvokeFunction" {
						continue
					}
					require.Len(t, g.Resources, 1)
					assert.NotEqual(t, "*", g.Resources[0])
					invoked = append(invoked, g.Resources[0])
				}
			}

			want := make([]any, 0, len(edges))
			for _, fn := range edges {
				want = append(want, intrinsics.Arn(string(fn)+"Function"))
			}
			assert.Equal(t, want, invoked)
		})
	}
}

func TestWire_FunctionFlags(t *testing.T) {
	engine := NewEngine(testConfig(), allBuilt())

	reqs, err := registry.FunctionRequirements(registry.ValidateDraftDataCompleteSchema)
	require.NoError(t, err)

	grants, err := engine.Wire(registry.ValidateDraftDataCompleteSchema.Spec(), reqs, nil)
	require.NoError(t, err)

	acts := actions(grants)
	assert.Contains(t, acts, "schemas:DescribeSchema")
	assert.Contains(t, acts, "ssm:GetParameter")
	assert.NotContains(t, acts, "secretsmanager:GetSecretValue")
	assert.NotContains(t, acts, "lambda:InvokeFunction")

	assert.Equal(t, grants, engine.Grants(registry.ValidateDraftDataCompleteSchema.Spec()))
}

func TestWire_ParameterStoreScopedToPrefix(t *testing.T) {
	engine := NewEngine(testConfig(), allBuilt())

	grants, err := engine.Wire(registry.HandleIcaEvent.Spec(), registry.NewRequirements(registry.NeedsParameterStoreAccess), nil)
	require.NoError(t, err)
	require.Len(t, grants, 1)

	data, err := json.Marshal(grants[0].Resources)
	require.NoError(t, err)
	assert.Contains(t, string(data), "parameter/orcabus/workflows/bclconvert/*")
}

func TestWire_UnbuiltEdgeFailsBeforeRecording(t *testing.T) {
	built := allBuilt()
	delete(built, registry.FindWorkflow)
	engine := NewEngine(testConfig(), built)

	reqs, _ := registry.StateMachineRequirements(registry.HandleIcaEvent)
	edges, _ := registry.Edges(registry.HandleIcaEvent)

	_, err := engine.Wire(registry.HandleIcaEvent.Spec(), reqs, edges)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnsatisfiedDependency))
	assert.Empty(t, engine.Grants(registry.HandleIcaEvent.Spec()))
}

func TestWire_RejectsFlagForWrongKind(t *testing.T) {
	engine := NewEngine(testConfig(), allBuilt())

	_, err := engine.Wire(registry.FindWorkflow.Spec(), registry.NewRequirements(registry.IsExpress), nil)
	assert.True(t, errors.Is(err, errs.ErrUnrecognizedRequirement))

	_, err = engine.Wire(registry.FindWorkflow.Spec(), registry.Requirements{registry.Requirement(99)}, nil)
	assert.True(t, errors.Is(err, errs.ErrUnrecognizedRequirement))
}

func TestWire_FunctionsCannotDeclareEdges(t *testing.T) {
	engine := NewEngine(testConfig(), allBuilt())
	_, err := engine.Wire(registry.FindWorkflow.Spec(), nil, []registry.FunctionName{registry.GetSequenceRunObject})
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestPolicy(t *testing.T) {
	p := Policy("handleIcaEventPolicy", []Grant{StartExecution(intrinsics.Ref{LogicalName: "HandleIcaEventStateMachine"})})
	data, err := json.Marshal(p.PolicyDocument)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Sid": "StartExecution",
			"Effect": "Allow",
			"Action": ["states:StartExecution"],
			"Resource": [{"Ref": "HandleIcaEventStateMachine"}]
		}]
	}`, string(data))
}

func TestResources_Sorted(t *testing.T) {
	engine := NewEngine(testConfig(), allBuilt())
	engine.Record(registry.ResourceSpec{Name: "b", Kind: registry.KindEventTarget}, PutEvents("x"))
	engine.Record(registry.ResourceSpec{Name: "a", Kind: registry.KindEventTarget}, PutEvents("x"))
	engine.Record(registry.ResourceSpec{Name: "z", Kind: registry.KindFunction}, PutEvents("x"))

	assert.Equal(t, []registry.ResourceSpec{
		{Name: "z", Kind: registry.KindFunction},
		{Name: "a", Kind: registry.KindEventTarget},
		{Name: "b", Kind: registry.KindEventTarget},
	}, engine.Resources())
}
