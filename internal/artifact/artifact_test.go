package artifact

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrcaBus/service-bclconvert-manager/app"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
)

func TestOpen_Embedded(t *testing.T) {
	store, err := Open(app.FS)
	require.NoError(t, err)

	for _, fn := range registry.Functions() {
		b, err := store.Function(string(fn))
		require.NoError(t, err, fn)
		assert.NotEmpty(t, b.Key)
	}
	for _, sm := range registry.StateMachines() {
		def, err := store.Definition(string(sm))
		require.NoError(t, err, sm)
		assert.Contains(t, string(def), "__")
	}

	layer, err := store.Layer("bsshToolsLayer")
	require.NoError(t, err)
	assert.Equal(t, "layers/bssh_tools/bssh_tools_layer.zip", layer.Key)
}

func TestStore_MissingArtifact(t *testing.T) {
	fsys := fstest.MapFS{
		"artifacts.yaml": {Data: []byte(`
functions:
  findWorkflow:
    key: lambdas/find_workflow.zip
stateMachines:
  handleIcaEvent:
    template: sfn/missing.asl.json
`)},
	}

	store, err := Open(fsys)
	require.NoError(t, err)

	_, err = store.Function("getSequenceRunObject")
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))

	_, err = store.Definition("handleIcaEvent")
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))
	assert.Contains(t, err.Error(), "ConfigError: artifact not found (resource=handleIcaEvent)")

	_, err = store.Definition("handleSrmEvent")
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))
}

func TestOpen_NoManifest(t *testing.T) {
	_, err := Open(fstest.MapFS{})
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))
}

func TestStore_Paths(t *testing.T) {
	store, err := Open(app.FS)
	require.NoError(t, err)

	paths := store.Paths()
	assert.Contains(t, paths, ManifestFile)
	assert.Contains(t, paths, "step-functions-templates/handle_ica_event_sfn_template.asl.json")
	assert.Len(t, paths, 4)
}
