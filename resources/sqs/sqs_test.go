package sqs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSerialization(t *testing.T) {
	assert.Equal(t, "AWS::SQS::Queue", Queue{}.ResourceType())
	assert.Equal(t, "AWS::SQS::QueuePolicy", QueuePolicy{}.ResourceType())

	q := Queue{
		QueueName:     "q",
		RedrivePolicy: &Queue_RedrivePolicy{DeadLetterTargetArn: "arn:dlq", MaxReceiveCount: 3},
	}
	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"QueueName":"q","RedrivePolicy":{"deadLetterTargetArn":"arn:dlq","maxReceiveCount":3}}`, string(data))
}
