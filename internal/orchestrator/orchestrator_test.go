package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-bclconvert-manager/app"
	"github.com/OrcaBus/service-bclconvert-manager/internal/artifact"
	"github.com/OrcaBus/service-bclconvert-manager/internal/builder"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/logging"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
)

func testConfig() *config.Config {
	cfg := config.Default(config.StageBeta)
	return &cfg
}

func embeddedStore(t *testing.T) *artifact.Store {
	t.Helper()
	store, err := artifact.Open(app.FS)
	require.NoError(t, err)
	return store
}

// copyFS copies the embedded artifacts, dropping the named paths.
func copyFS(t *testing.T, drop ...string) fstest.MapFS {
	t.Helper()
	store := embeddedStore(t)
	out := fstest.MapFS{}
	for _, p := range store.Paths() {
		data, err := fs.ReadFile(app.FS, p)
		require.NoError(t, err)
		out[p] = &fstest.MapFile{Data: data}
	}
	for _, p := range drop {
		delete(out, p)
	}
	return out
}

func run(t *testing.T) *Graph {
	t.Helper()
	o := New(testConfig(), embeddedStore(t))
	g, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, o.State())
	return g
}

func TestRun_BuildsFullGraph(t *testing.T) {
	g := run(t)

	assert.Len(t, g.Functions, 9)
	assert.Len(t, g.StateMachines, 3)
	assert.Len(t, g.Routes, 3)
	assert.Len(t, g.Parameters, 6)
	require.NotNil(t, g.Layer)
	require.NotNil(t, g.Pipe)
	assert.True(t, g.Bindings.Frozen())
	assert.Equal(t, "2025.10", g.Revision)
	assert.Len(t, g.Specs(), 9+3+3*2+1)

	for i, name := range registry.Functions() {
		assert.Equal(t, name, g.Functions[i].Name, "declaration order is kept")
	}
}

func TestRun_StateMachinesInvokeOnlyTheirEdges(t *testing.T) {
	g := run(t)

	for _, sm := range g.StateMachines {
		var invoked []any
		for _, grant := range g.Permissions.Grants(sm.Name.Spec()) {
			for _, a := range grant.Actions {
				if a == "lambda:InvokeFunction" {
					invoked = append(invoked, grant.Resources...)
				}
			}
		}
		want := make([]any, 0, len(sm.Edges))
		for _, fn := range sm.Edges {
			want = append(want, intrinsics.Arn(builder.FunctionLogicalID(fn)))
		}
		assert.Equal(t, want, invoked, sm.Name)
	}
}

func TestRun_TargetRolesStartOneStateMachine(t *testing.T) {
	g := run(t)

	for _, r := range g.Routes {
		grants := g.Permissions.Grants(r.Rule.TargetSpec())
		require.Len(t, grants, 1)
		assert.Equal(t, []string{"states:StartExecution"}, grants[0].Actions)
		assert.Equal(t, []any{intrinsics.Ref{LogicalName: builder.StateMachineLogicalID(r.Rule.Target)}}, grants[0].Resources)
		require.Len(t, r.Resource.Targets, 1)
		assert.Equal(t, intrinsics.Arn(r.TargetRoleLogicalID), r.Resource.Targets[0].RoleArn)
	}
}

func TestRun_Deterministic(t *testing.T) {
	a, b := run(t), run(t)

	assert.Equal(t, a.Bindings.Keys(), b.Bindings.Keys())
	for _, key := range a.Bindings.Keys() {
		va, _ := a.Bindings.Lookup(key)
		vb, _ := b.Bindings.Lookup(key)
		assert.Equal(t, va, vb, key)
	}

	require.Equal(t, a.Permissions.Resources(), b.Permissions.Resources())
	for _, spec := range a.Permissions.Resources() {
		assert.Equal(t, a.Permissions.Grants(spec), b.Permissions.Grants(spec), spec.String())
	}
	for i := range a.StateMachines {
		assert.Equal(t, a.StateMachines[i].Document, b.StateMachines[i].Document)
	}
}

func TestRun_MissingDefinitionAborts(t *testing.T) {
	fsys := copyFS(t, "step-functions-templates/validate_draft_to_ready_sfn_template.asl.json")
	store, err := artifact.Open(fsys)
	require.NoError(t, err)

	o := New(testConfig(), store)
	g, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, errs.ErrConfig))
	assert.Equal(t, StateFunctionsBuilt, o.State())
}

func TestRun_MissingFunctionAborts(t *testing.T) {
	fsys := copyFS(t)
	manifest := string(fsys[artifact.ManifestFile].Data)
	manifest = strings.Replace(manifest, "  findWorkflow:\n", "  findWorkflowRenamed:\n", 1)
	fsys[artifact.ManifestFile] = &fstest.MapFile{Data: []byte(manifest)}
	store, err := artifact.Open(fsys)
	require.NoError(t, err)

	o := New(testConfig(), store)
	g, err := o.Run(context.Background())
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))
	assert.Nil(t, g)
	assert.Equal(t, StateInit, o.State())
}

func TestRun_UnknownRevision(t *testing.T) {
	cfg := testConfig()
	cfg.RouteRevision = "2024.01"
	o := New(cfg, embeddedStore(t))
	_, err := o.Run(context.Background())
	assert.True(t, errors.Is(err, errs.ErrConfig))
	assert.Equal(t, StateStateMachinesBuilt, o.State())
}

func TestRun_OnlyOnce(t *testing.T) {
	o := New(testConfig(), embeddedStore(t))
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	_, err = o.Run(context.Background())
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errs.CodeInvalidTransition, e.Code)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testConfig(), embeddedStore(t)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewWithWriter(logging.Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	_, err = New(testConfig(), embeddedStore(t), WithLogger(logger)).Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	for _, s := range []State{StateFunctionsBuilt, StateStateMachinesBuilt, StateRulesBuilt, StateTargetsWired, StateDone} {
		assert.Contains(t, out, `"state":"`+s.String()+`"`)
	}
	assert.Contains(t, out, `"component":"orchestrator"`)
}

func TestRun_LogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewWithWriter(logging.Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := logging.WithContext(context.Background(), logger)
	_, err = New(testConfig(), embeddedStore(t)).Run(ctx)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"state":"Done"`)
	assert.Contains(t, out, `"resource":"findWorkflow"`)
	assert.Contains(t, out, `"component":"orchestrator"`)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Init", StateInit.String())
	assert.Equal(t, "Done", StateDone.String())
	assert.Equal(t, "State(9)", State(9).String())
}
