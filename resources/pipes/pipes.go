// Package pipes provides the AWS::Pipes resource types used by the stack.
package pipes

// Pipe is an AWS::Pipes::Pipe.
type Pipe struct {
	Name             string                 `json:"Name,omitempty"`
	Description      string                 `json:"Description,omitempty"`
	RoleArn          any                    `json:"RoleArn"`
	Source           any                    `json:"Source"`
	SourceParameters *Pipe_SourceParameters `json:"SourceParameters,omitempty"`
	Target           any                    `json:"Target"`
	TargetParameters *Pipe_TargetParameters `json:"TargetParameters,omitempty"`
	LogConfiguration *Pipe_LogConfiguration `json:"LogConfiguration,omitempty"`
	DesiredState     string                 `json:"DesiredState,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Pipe) ResourceType() string { return "AWS::Pipes::Pipe" }

// Pipe_SourceParameters configures the source.
type Pipe_SourceParameters struct {
	SqsQueueParameters *Pipe_SqsQueueParameters `json:"SqsQueueParameters,omitempty"`
}

// Pipe_SqsQueueParameters configures SQS polling.
type Pipe_SqsQueueParameters struct {
	BatchSize                      int `json:"BatchSize,omitempty"`
	MaximumBatchingWindowInSeconds int `json:"MaximumBatchingWindowInSeconds,omitempty"`
}

// Pipe_TargetParameters configures the target invocation.
type Pipe_TargetParameters struct {
	InputTemplate                      string                                   `json:"InputTemplate,omitempty"`
	StepFunctionStateMachineParameters *Pipe_StepFunctionStateMachineParameters `json:"StepFunctionStateMachineParameters,omitempty"`
}

// Pipe_StepFunctionStateMachineParameters selects how executions start.
type Pipe_StepFunctionStateMachineParameters struct {
	InvocationType string `json:"InvocationType"`
}

// Pipe_LogConfiguration sends pipe logs to CloudWatch.
type Pipe_LogConfiguration struct {
	Level                        string                             `json:"Level,omitempty"`
	CloudwatchLogsLogDestination *Pipe_CloudwatchLogsLogDestination `json:"CloudwatchLogsLogDestination,omitempty"`
}

// Pipe_CloudwatchLogsLogDestination names the log group by ARN.
type Pipe_CloudwatchLogsLogDestination struct {
	LogGroupArn any `json:"LogGroupArn"`
}

// Invocation types for state machine targets.
const (
	InvocationFireAndForget   = "FIRE_AND_FORGET"
	InvocationRequestResponse = "REQUEST_RESPONSE"
)
