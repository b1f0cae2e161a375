// Package sqs provides the AWS::SQS resource types used by the stack.
package sqs

// Queue is an AWS::SQS::Queue.
type Queue struct {
	QueueName            any                  `json:"QueueName,omitempty"`
	VisibilityTimeout    int                  `json:"VisibilityTimeout,omitempty"`
	SqsManagedSseEnabled bool                 `json:"SqsManagedSseEnabled,omitempty"`
	RedrivePolicy        *Queue_RedrivePolicy `json:"RedrivePolicy,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Queue) ResourceType() string { return "AWS::SQS::Queue" }

// Queue_RedrivePolicy moves messages to a dead-letter queue after
// MaxReceiveCount receives.
type Queue_RedrivePolicy struct {
	DeadLetterTargetArn any `json:"deadLetterTargetArn"`
	MaxReceiveCount     int `json:"maxReceiveCount"`
}

// QueuePolicy is an AWS::SQS::QueuePolicy.
type QueuePolicy struct {
	Queues         []any `json:"Queues"`
	PolicyDocument any   `json:"PolicyDocument"`
}

// ResourceType returns the CloudFormation type.
func (QueuePolicy) ResourceType() string { return "AWS::SQS::QueuePolicy" }
