// Package stepfunctions provides the AWS::StepFunctions resource types used by the stack.
package stepfunctions

// StateMachine is an AWS::StepFunctions::StateMachine.
type StateMachine struct {
	StateMachineName     string                             `json:"StateMachineName,omitempty"`
	StateMachineType     string                             `json:"StateMachineType,omitempty"`
	RoleArn              any                                `json:"RoleArn"`
	DefinitionString     any                                `json:"DefinitionString,omitempty"`
	LoggingConfiguration *StateMachine_LoggingConfiguration `json:"LoggingConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (StateMachine) ResourceType() string { return "AWS::StepFunctions::StateMachine" }

// StateMachine_LoggingConfiguration enables execution logging.
type StateMachine_LoggingConfiguration struct {
	Level                string                        `json:"Level,omitempty"`
	IncludeExecutionData bool                          `json:"IncludeExecutionData,omitempty"`
	Destinations         []StateMachine_LogDestination `json:"Destinations,omitempty"`
}

// StateMachine_LogDestination is a log group destination.
type StateMachine_LogDestination struct {
	CloudWatchLogsLogGroup StateMachine_CloudWatchLogsLogGroup `json:"CloudWatchLogsLogGroup"`
}

// StateMachine_CloudWatchLogsLogGroup names the log group by ARN.
type StateMachine_CloudWatchLogsLogGroup struct {
	LogGroupArn any `json:"LogGroupArn"`
}

// State machine types.
const (
	TypeStandard = "STANDARD"
	TypeExpress  = "EXPRESS"
)
