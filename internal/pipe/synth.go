package pipe

import (
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/permissions"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/cloudwatch"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
	"github.com/OrcaBus/service-bclconvert-manager/resources/logs"
	"github.com/OrcaBus/service-bclconvert-manager/resources/pipes"
	"github.com/OrcaBus/service-bclconvert-manager/resources/sqs"
)

// Logical IDs of the pipe resources.
const (
	QueueLogicalID           = "IcaQueue"
	DeadLetterQueueLogicalID = "IcaDeadLetterQueue"
	QueuePolicyLogicalID     = "IcaQueuePolicy"
	AlarmLogicalID           = "IcaDeadLetterQueueAlarm"
	LogGroupLogicalID        = "IcaEventPipeLogGroup"
	RoleLogicalID            = "IcaEventPipeRole"
	PipeLogicalID            = "IcaEventPipe"
)

// Resources are the synthesized pipe resources.
type Resources struct {
	Queue           sqs.Queue
	DeadLetterQueue sqs.Queue
	QueuePolicy     sqs.QueuePolicy
	Alarm           cloudwatch.Alarm
	LogGroup        logs.LogGroup
	Role            iam.Role
	Pipe            pipes.Pipe
	Grants          []permissions.Grant
}

// Spec returns the pipe's resource spec.
func (c Config) Spec() registry.ResourceSpec {
	return registry.ResourceSpec{Name: c.PipeName, Kind: registry.KindIngestionPipe}
}

// TargetArn is the ARN of the target state machine. The pipe lives in the
// stateful stack and addresses its target by deployed name.
func (c Config) TargetArn() intrinsics.Sub {
	return intrinsics.StackARN("states", "stateMachine:"+config.StateMachineName(string(c.Target)))
}

// Synthesize renders the pipe, its queues, alarm and role.
func Synthesize(c Config) (*Resources, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	visibility := int(c.VisibilityTimeout.Seconds())
	queueArn := intrinsics.Arn(QueueLogicalID)
	logGroupArn := intrinsics.Arn(LogGroupLogicalID)

	grants := []permissions.Grant{
		permissions.ConsumeQueue(queueArn),
		permissions.StartExecution(c.TargetArn()),
		permissions.WriteLogs(logGroupArn),
	}

	r := &Resources{
		Queue: sqs.Queue{
			QueueName:            c.QueueName,
			VisibilityTimeout:    visibility,
			SqsManagedSseEnabled: true,
			RedrivePolicy: &sqs.Queue_RedrivePolicy{
				DeadLetterTargetArn: intrinsics.Arn(DeadLetterQueueLogicalID),
				MaxReceiveCount:     c.MaxReceiveCount,
			},
		},
		DeadLetterQueue: sqs.Queue{
			QueueName:            c.DeadLetterQueueName(),
			VisibilityTimeout:    visibility,
			SqsManagedSseEnabled: true,
		},
		QueuePolicy: sqs.QueuePolicy{
			Queues: []any{intrinsics.Ref{LogicalName: QueueLogicalID}},
			PolicyDocument: intrinsics.NewPolicyDocument(
				intrinsics.PolicyStatement{
					Sid:       "ProducerSend",
					Effect:    "Allow",
					Principal: intrinsics.AWSPrincipal{intrinsics.AccountRoot(c.ProducerAccount)},
					Action:    []string{"sqs:SendMessage", "sqs:GetQueueAttributes", "sqs:GetQueueUrl"},
					Resource:  queueArn,
				},
				intrinsics.PolicyStatement{
					Sid:       "EnforceTLS",
					Effect:    "Deny",
					Principal: intrinsics.AWSPrincipal{"*"},
					Action:    []string{"sqs:*"},
					Resource:  queueArn,
					Condition: intrinsics.Json{intrinsics.Bool: intrinsics.Json{"aws:SecureTransport": "false"}},
				},
			),
		},
		Alarm: cloudwatch.Alarm{
			AlarmDescription:   "Messages in the " + c.DeadLetterQueueName() + " dead-letter queue",
			Namespace:          "AWS/SQS",
			MetricName:         "ApproximateNumberOfMessagesVisible",
			Dimensions:         []cloudwatch.Alarm_Dimension{{Name: "QueueName", Value: intrinsics.GetAtt{LogicalName: DeadLetterQueueLogicalID, Attribute: "QueueName"}}},
			Statistic:          "Maximum",
			Period:             60,
			EvaluationPeriods:  1,
			Threshold:          float64(c.DeadLetterThreshold),
			ComparisonOperator: cloudwatch.GreaterThanOrEqualToThreshold,
			TreatMissingData:   "notBreaching",
			AlarmActions:       []any{intrinsics.StackARN("sns", c.AlarmTopicName)},
		},
		LogGroup: logs.LogGroup{},
		Role: iam.Role{
			AssumeRolePolicyDocument: intrinsics.AssumeRoleDocument("pipes.amazonaws.com"),
			Policies:                 []iam.Role_Policy{permissions.Policy(PipeLogicalID+"Policy", grants)},
		},
		Pipe: pipes.Pipe{
			Name:    c.PipeName,
			RoleArn: intrinsics.Arn(RoleLogicalID),
			Source:  queueArn,
			SourceParameters: &pipes.Pipe_SourceParameters{
				SqsQueueParameters: &pipes.Pipe_SqsQueueParameters{BatchSize: c.BatchSize},
			},
			Target: c.TargetArn(),
			TargetParameters: &pipes.Pipe_TargetParameters{
				InputTemplate: "<" + BodyPath + ">",
				StepFunctionStateMachineParameters: &pipes.Pipe_StepFunctionStateMachineParameters{
					InvocationType: c.InvocationType,
				},
			},
			LogConfiguration: &pipes.Pipe_LogConfiguration{
				Level:                        "ERROR",
				CloudwatchLogsLogDestination: &pipes.Pipe_CloudwatchLogsLogDestination{LogGroupArn: logGroupArn},
			},
			DesiredState: "RUNNING",
		},
		Grants: grants,
	}
	return r, nil
}

// DependsOn returns the dependencies of each pipe resource by logical ID.
func DependsOn() map[string][]string {
	return map[string][]string{
		DeadLetterQueueLogicalID: nil,
		QueueLogicalID:           {DeadLetterQueueLogicalID},
		QueuePolicyLogicalID:     {QueueLogicalID},
		AlarmLogicalID:           {DeadLetterQueueLogicalID},
		LogGroupLogicalID:        nil,
		RoleLogicalID:            {QueueLogicalID, LogGroupLogicalID},
		PipeLogicalID:            {QueueLogicalID, RoleLogicalID, LogGroupLogicalID},
	}
}
