package serialize

import (
	"testing"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFunction struct {
	FunctionName string                `json:"FunctionName,omitempty"`
	Role         any                   `json:"Role,omitempty"`
	Layers       []any                 `json:"Layers,omitempty"`
	Timeout      int                   `json:"Timeout,omitempty"`
	Environment  *testEnvironment      `json:"Environment,omitempty"`
	Tags         []testTag             `json:"Tags,omitempty"`
	Extra        map[string]string     `json:"Extra,omitempty"`
	Hidden       string                `json:"-"`
	Ref          *intrinsics.Ref       `json:"RefPtr,omitempty"`
	Sub          intrinsics.SubWithMap `json:"Definition,omitempty"`
}

type testEnvironment struct {
	Variables map[string]any `json:"Variables"`
}

type testTag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

func TestResource_SimpleStruct(t *testing.T) {
	props, err := Resource(testFunction{FunctionName: "findWorkflow", Timeout: 60})
	require.NoError(t, err)

	assert.Equal(t, "findWorkflow", props["FunctionName"])
	assert.Equal(t, int64(60), props["Timeout"])
	assert.NotContains(t, props, "Layers")
	assert.NotContains(t, props, "Environment")
}

func TestResource_WithNestedStruct(t *testing.T) {
	fn := testFunction{
		Environment: &testEnvironment{Variables: map[string]any{
			"ICAV2_BASE_URL": "https://ica.illumina.com/ica/rest",
		}},
	}

	props, err := Resource(fn)
	require.NoError(t, err)

	env := props["Environment"].(map[string]any)
	vars := env["Variables"].(map[string]any)
	assert.Equal(t, "https://ica.illumina.com/ica/rest", vars["ICAV2_BASE_URL"])
}

func TestResource_WithSliceOfStructs(t *testing.T) {
	fn := testFunction{Tags: []testTag{
		{Key: "stage", Value: "BETA"},
		{Key: "service", Value: "bclconvert"},
	}}

	props, err := Resource(fn)
	require.NoError(t, err)

	tags := props["Tags"].([]any)
	require.Len(t, tags, 2)
	assert.Equal(t, "BETA", tags[0].(map[string]any)["Value"])
}

func TestResource_RendersIntrinsics(t *testing.T) {
	fn := testFunction{
		Role:   intrinsics.GetAtt{LogicalName: "FindWorkflowRole", Attribute: "Arn"},
		Layers: []any{intrinsics.Ref{LogicalName: "OrcabusApiToolsLayerArn"}},
		Ref:    &intrinsics.Ref{LogicalName: "IcaQueue"},
		Sub: intrinsics.SubWithMap{
			String:    "${fn}",
			Variables: map[string]any{"fn": intrinsics.Ref{LogicalName: "X"}},
		},
	}

	props, err := Resource(fn)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"FindWorkflowRole", "Arn"}}, props["Role"])
	assert.Equal(t, []any{map[string]any{"Ref": "OrcabusApiToolsLayerArn"}}, props["Layers"])
	assert.Equal(t, map[string]any{"Ref": "IcaQueue"}, props["RefPtr"])
	assert.Contains(t, props["Definition"], "Fn::Sub")
}

func TestResource_OmitsZeroValues(t *testing.T) {
	props, err := Resource(testFunction{Hidden: "x"})
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestResource_WithPointer(t *testing.T) {
	props, err := Resource(&testFunction{FunctionName: "getSequenceRunObject"})
	require.NoError(t, err)
	assert.Equal(t, "getSequenceRunObject", props["FunctionName"])

	var nilFn *testFunction
	props, err = Resource(nilFn)
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestResource_MapValues(t *testing.T) {
	props, err := Resource(testFunction{Extra: map[string]string{"a": "b"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "b"}, props["Extra"])
}

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"handleIcaEvent", "HandleIcaEvent"},
		{"findWorkflowsByInstrumentRunId", "FindWorkflowsByInstrumentRunId"},
		{"bucket_name", "BucketName"},
		{"simple", "Simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPascalCase(tt.input))
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"findWorkflow", "find_workflow"},
		{"createBclconvertWorkflowDraftEventDetail", "create_bclconvert_workflow_draft_event_detail"},
		{"findWorkflowsByInstrumentRunId", "find_workflows_by_instrument_run_id"},
		{"needsIcav2Tools", "needs_icav2_tools"},
		{"SRMEvent", "srm_event"},
		{"Simple", "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToSnakeCase(tt.input))
		})
	}
}

func TestToKebabCase(t *testing.T) {
	assert.Equal(t, "complete-data-draft", ToKebabCase("completeDataDraft"))
	assert.Equal(t, "handle-ica-event", ToKebabCase("handleIcaEvent"))
}

func TestValue(t *testing.T) {
	v, err := Value(intrinsics.GetAtt{LogicalName: "IcaQueue", Attribute: "Arn"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"IcaQueue", "Arn"}}, v)

	v, err = Value("literal")
	require.NoError(t, err)
	assert.Equal(t, "literal", v)
}
