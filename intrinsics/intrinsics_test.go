package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_MarshalJSON(t *testing.T) {
	ref := Ref{LogicalName: "IcaQueue"}
	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "IcaQueue"}`, string(data))
}

func TestArn(t *testing.T) {
	data, err := json.Marshal(Arn("FindWorkflowFunction"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["FindWorkflowFunction", "Arn"]}`, string(data))
}

func TestSubWithMap_MarshalJSON(t *testing.T) {
	sub := SubWithMap{
		String: `{"Resource": "${find}"}`,
		Variables: map[string]any{
			"find": Arn("FindWorkflowFunction"),
		},
	}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Fn::Sub"`)
	assert.Contains(t, string(data), `"Fn::GetAtt"`)
}

func TestIsIntrinsic(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"ref", Ref{LogicalName: "X"}, true},
		{"getatt", Arn("X"), true},
		{"sub", StackARN("ssm", "parameter/x"), true},
		{"string", "DRAFT", false},
		{"principal", ServicePrincipal{"states.amazonaws.com"}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIntrinsic(tt.v))
		})
	}
}

func TestStackARN(t *testing.T) {
	assert.Equal(t,
		"arn:${AWS::Partition}:ssm:${AWS::Region}:${AWS::AccountId}:parameter/orcabus/workflows/bclconvert/*",
		StackARNString("ssm", "parameter/orcabus/workflows/bclconvert/*"))

	data, err := json.Marshal(AccountRoot("079623148045"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "arn:${AWS::Partition}:iam::079623148045:root"}`, string(data))
}

func TestPolicyDocument(t *testing.T) {
	doc := NewPolicyDocument(Allow([]string{"ssm:GetParameter"}, StackARN("ssm", "parameter/x")))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Action": ["ssm:GetParameter"],
			"Resource": [{"Fn::Sub": "arn:${AWS::Partition}:ssm:${AWS::Region}:${AWS::AccountId}:parameter/x"}]
		}]
	}`, string(data))
}

func TestAssumeRoleDocument(t *testing.T) {
	data, err := json.Marshal(AssumeRoleDocument("lambda.amazonaws.com"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Principal":{"Service":"lambda.amazonaws.com"}`)
	assert.Contains(t, string(data), `"Action":["sts:AssumeRole"]`)
}
