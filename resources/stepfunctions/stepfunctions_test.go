package stepfunctions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineSerialization(t *testing.T) {
	assert.Equal(t, "AWS::StepFunctions::StateMachine", StateMachine{}.ResourceType())

	sm := StateMachine{
		StateMachineName: "orca-bclconvert--handleIcaEvent",
		StateMachineType: TypeExpress,
		RoleArn:          "arn:role",
		LoggingConfiguration: &StateMachine_LoggingConfiguration{
			Level:                "ALL",
			IncludeExecutionData: true,
			Destinations: []StateMachine_LogDestination{{
				CloudWatchLogsLogGroup: StateMachine_CloudWatchLogsLogGroup{LogGroupArn: "arn:lg"},
			}},
		},
	}
	data, err := json.Marshal(sm)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"StateMachineType":"EXPRESS"`)
	assert.Contains(t, string(data), `"LogGroupArn":"arn:lg"`)
}
