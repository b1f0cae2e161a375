// Package ssm provides the AWS::SSM resource types used by the stack.
package ssm

// Parameter is an AWS::SSM::Parameter.
type Parameter struct {
	Name        string `json:"Name,omitempty"`
	Type        string `json:"Type"`
	Value       any    `json:"Value"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Parameter) ResourceType() string { return "AWS::SSM::Parameter" }

// TypeString is the plain string parameter type.
const TypeString = "String"
