// Package iam provides the AWS::IAM resource types used by the stack.
package iam

// Role is an AWS::IAM::Role.
type Role struct {
	RoleName                 any           `json:"RoleName,omitempty"`
	Description              string        `json:"Description,omitempty"`
	AssumeRolePolicyDocument any           `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any         `json:"ManagedPolicyArns,omitempty"`
	Policies                 []Role_Policy `json:"Policies,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Role) ResourceType() string { return "AWS::IAM::Role" }

// Role_Policy is an inline policy attached to a role.
type Role_Policy struct {
	PolicyName     string `json:"PolicyName"`
	PolicyDocument any    `json:"PolicyDocument"`
}
