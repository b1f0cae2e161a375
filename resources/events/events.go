// Package events provides the AWS::Events resource types used by the stack.
package events

// Rule is an AWS::Events::Rule. Targets are declared inline.
type Rule struct {
	Name         string        `json:"Name,omitempty"`
	Description  string        `json:"Description,omitempty"`
	EventBusName any           `json:"EventBusName,omitempty"`
	EventPattern any           `json:"EventPattern,omitempty"`
	State        string        `json:"State,omitempty"`
	Targets      []Rule_Target `json:"Targets,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Rule) ResourceType() string { return "AWS::Events::Rule" }

// Rule_Target delivers matched events to a resource.
type Rule_Target struct {
	Id               string                 `json:"Id"`
	Arn              any                    `json:"Arn"`
	RoleArn          any                    `json:"RoleArn,omitempty"`
	InputPath        string                 `json:"InputPath,omitempty"`
	InputTransformer *Rule_InputTransformer `json:"InputTransformer,omitempty"`
}

// Rule_InputTransformer reshapes the event before delivery.
type Rule_InputTransformer struct {
	InputPathsMap map[string]string `json:"InputPathsMap,omitempty"`
	InputTemplate string            `json:"InputTemplate"`
}

// StateEnabled is the only rule state the stack deploys.
const StateEnabled = "ENABLED"
