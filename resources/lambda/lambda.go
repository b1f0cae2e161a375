// Package lambda provides the AWS::Lambda resource types used by the stack.
package lambda

// Function is an AWS::Lambda::Function.
type Function struct {
	FunctionName  any                   `json:"FunctionName,omitempty"`
	Description   string                `json:"Description,omitempty"`
	Runtime       string                `json:"Runtime,omitempty"`
	Architectures []string              `json:"Architectures,omitempty"`
	Handler       string                `json:"Handler,omitempty"`
	Code          Function_Code         `json:"Code"`
	Role          any                   `json:"Role"`
	Timeout       int                   `json:"Timeout,omitempty"`
	MemorySize    int                   `json:"MemorySize,omitempty"`
	Layers        []any                 `json:"Layers,omitempty"`
	Environment   *Function_Environment `json:"Environment,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code points at a code bundle in S3.
type Function_Code struct {
	S3Bucket any    `json:"S3Bucket,omitempty"`
	S3Key    any    `json:"S3Key,omitempty"`
	ZipFile  string `json:"ZipFile,omitempty"`
}

// Function_Environment holds environment variables.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// LayerVersion is an AWS::Lambda::LayerVersion.
type LayerVersion struct {
	LayerName               string               `json:"LayerName,omitempty"`
	Description             string               `json:"Description,omitempty"`
	Content                 LayerVersion_Content `json:"Content"`
	CompatibleRuntimes      []string             `json:"CompatibleRuntimes,omitempty"`
	CompatibleArchitectures []string             `json:"CompatibleArchitectures,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (LayerVersion) ResourceType() string { return "AWS::Lambda::LayerVersion" }

// LayerVersion_Content points at a layer bundle in S3.
type LayerVersion_Content struct {
	S3Bucket any `json:"S3Bucket"`
	S3Key    any `json:"S3Key"`
}
