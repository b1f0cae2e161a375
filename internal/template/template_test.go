package template

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/app"
	"github.com/OrcaBus/service-bclconvert-manager/internal/artifact"
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/orchestrator"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
	"github.com/OrcaBus/service-bclconvert-manager/resources/sqs"
)

func TestBuilder_Build_SimpleResource(t *testing.T) {
	b := NewBuilder("test")
	require.NoError(t, b.Add("IcaQueue", sqs.Queue{QueueName: "BclConvertAnalysisSqsQueue"}))

	template, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "2010-09-09", template.AWSTemplateFormatVersion)
	assert.Equal(t, "test", template.Description)
	require.Len(t, template.Resources, 1)

	queue := template.Resources["IcaQueue"]
	assert.Equal(t, "AWS::SQS::Queue", queue.Type)
	assert.Equal(t, "BclConvertAnalysisSqsQueue", queue.Properties["QueueName"])
	assert.Empty(t, queue.DependsOn)
}

func TestBuilder_Build_WithDependencies(t *testing.T) {
	b := NewBuilder("")
	require.NoError(t, b.Add("IcaDeadLetterQueue", sqs.Queue{QueueName: "dlq"}))
	require.NoError(t, b.Add("IcaQueue", sqs.Queue{
		QueueName: "q",
		RedrivePolicy: &sqs.Queue_RedrivePolicy{
			DeadLetterTargetArn: intrinsics.Arn("IcaDeadLetterQueue"),
			MaxReceiveCount:     3,
		},
	}, "IcaDeadLetterQueue"))

	template, err := b.Build()
	require.NoError(t, err)

	queue := template.Resources["IcaQueue"]
	assert.Equal(t, []string{"IcaDeadLetterQueue"}, queue.DependsOn)
	redrive := queue.Properties["RedrivePolicy"].(map[string]any)
	assert.Contains(t, redrive["deadLetterTargetArn"], "Fn::GetAtt")
}

func TestBuilder_Order(t *testing.T) {
	b := NewBuilder("")
	require.NoError(t, b.Add("C", sqs.Queue{}, "B"))
	require.NoError(t, b.Add("B", sqs.Queue{}, "A"))
	require.NoError(t, b.Add("A", sqs.Queue{}))
	require.NoError(t, b.Add("D", sqs.Queue{}))

	order, err := b.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, order)
}

func TestBuilder_DetectCycle(t *testing.T) {
	b := NewBuilder("")
	require.NoError(t, b.Add("A", sqs.Queue{}, "B"))
	require.NoError(t, b.Add("B", sqs.Queue{}, "C"))
	require.NoError(t, b.Add("C", sqs.Queue{}, "A"))

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestBuilder_UnknownDependency(t *testing.T) {
	b := NewBuilder("")
	require.NoError(t, b.Add("FindWorkflowFunction", iam.Role{}, "FindWorkflowRole"))

	_, err := b.Build()
	assert.True(t, errors.Is(err, errs.ErrUnsatisfiedDependency))
}

func TestBuilder_DuplicateLogicalID(t *testing.T) {
	b := NewBuilder("")
	require.NoError(t, b.Add("IcaQueue", sqs.Queue{}))
	err := b.Add("IcaQueue", sqs.Queue{})
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestToJSON(t *testing.T) {
	template := &bclconvert.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]bclconvert.ResourceDef{
			"IcaQueue": {
				Type:       "AWS::SQS::Queue",
				Properties: map[string]any{"QueueName": "BclConvertAnalysisSqsQueue"},
			},
		},
	}

	data, err := ToJSON(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Contains(t, string(data), "\n  ")
}

func TestToYAML_RendersIntrinsics(t *testing.T) {
	b := NewBuilder("")
	require.NoError(t, b.Add("IcaQueue", sqs.Queue{QueueName: "q"}))
	b.AddOutput("IcaQueueArn", bclconvert.Output{Value: intrinsics.Arn("IcaQueue")})

	template, err := b.Build()
	require.NoError(t, err)
	data, err := ToYAML(template)
	require.NoError(t, err)

	assert.Contains(t, string(data), "AWSTemplateFormatVersion:")
	assert.Contains(t, string(data), "Fn::GetAtt:")
	assert.NotContains(t, string(data), "logicalname")
}

func buildGraph(t *testing.T) (*orchestrator.Graph, *config.Config) {
	t.Helper()
	cfg := config.Default(config.StageBeta)
	store, err := artifact.Open(app.FS)
	require.NoError(t, err)
	g, err := orchestrator.New(&cfg, store).Run(context.Background())
	require.NoError(t, err)
	return g, &cfg
}

func TestSynthesize_Stateful(t *testing.T) {
	g, cfg := buildGraph(t)

	tmpl, err := Synthesize(g, cfg, Stateful)
	require.NoError(t, err)

	assert.Equal(t, "AWS::Pipes::Pipe", tmpl.Resources["IcaEventPipe"].Type)
	assert.Equal(t, "AWS::SQS::Queue", tmpl.Resources["IcaDeadLetterQueue"].Type)
	assert.Equal(t, "AWS::CloudWatch::Alarm", tmpl.Resources["IcaDeadLetterQueueAlarm"].Type)
	assert.Equal(t, "AWS::SSM::Parameter", tmpl.Resources["PipelineIdsParameter"].Type)
	assert.Empty(t, tmpl.Parameters)

	for id, res := range tmpl.Resources {
		assert.NotEqual(t, "AWS::Lambda::Function", res.Type, id)
		assert.NotEqual(t, "AWS::StepFunctions::StateMachine", res.Type, id)
	}
}

func TestSynthesize_Stateless(t *testing.T) {
	g, cfg := buildGraph(t)

	tmpl, err := Synthesize(g, cfg, Stateless)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, res := range tmpl.Resources {
		counts[res.Type]++
	}
	assert.Equal(t, 9, counts["AWS::Lambda::Function"])
	assert.Equal(t, 3, counts["AWS::StepFunctions::StateMachine"])
	assert.Equal(t, 3, counts["AWS::Events::Rule"])
	assert.Equal(t, 1, counts["AWS::Lambda::LayerVersion"])
	assert.Equal(t, 1, counts["AWS::Logs::LogGroup"])
	assert.Equal(t, 9+3+3, counts["AWS::IAM::Role"])

	param := tmpl.Parameters["OrcabusApiToolsLayerArn"]
	assert.Equal(t, "AWS::SSM::Parameter::Value<String>", param.Type)
	assert.Equal(t, cfg.OrcabusAPIToolsLayerParameter, param.Default)

	sm := tmpl.Resources["HandleIcaEventStateMachine"]
	assert.Contains(t, sm.DependsOn, "FindWorkflowFunction")
	assert.Contains(t, sm.DependsOn, "HandleIcaEventStateMachineLogGroup")

	data, err := ToJSON(tmpl)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "__", "every placeholder is resolved")
	assert.Contains(t, string(data), `"Fn::Sub"`)
}

func TestSynthesize_StacksAreDisjoint(t *testing.T) {
	g, cfg := buildGraph(t)

	stateful, err := Synthesize(g, cfg, Stateful)
	require.NoError(t, err)
	stateless, err := Synthesize(g, cfg, Stateless)
	require.NoError(t, err)

	for id := range stateful.Resources {
		assert.NotContains(t, stateless.Resources, id)
	}
}

func TestParseStack(t *testing.T) {
	s, err := ParseStack("Stateless")
	require.NoError(t, err)
	assert.Equal(t, Stateless, s)
	assert.Equal(t, config.StatelessStackName, s.Name())

	_, err = ParseStack("all")
	assert.Error(t, err)
}

func TestSynthesize_YAML(t *testing.T) {
	g, cfg := buildGraph(t)
	tmpl, err := Synthesize(g, cfg, Stateless)
	require.NoError(t, err)

	data, err := ToYAML(tmpl)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.True(t, strings.HasPrefix(string(data), "AWSTemplateFormatVersion"))
}
