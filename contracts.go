// Package bclconvert holds the shared types of the BCLConvert manager
// provisioning compiler: the CloudFormation template model and the JSON
// results printed by the bclconvert-manager CLI.
//
// The compiler resolves the static function and state machine tables into
// IAM and environment wiring, substitutes placeholders in the state machine
// definitions, routes workflow manager and sequence run manager events to
// state machines and wires the ICA ingestion pipe. The result is two
// CloudFormation templates:
//
//	bclconvert-manager build --stage BETA --stack stateless -f yaml
package bclconvert

// Resource represents a CloudFormation resource.
// Every type under resources/ implements this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::Lambda::Function")
	ResourceType() string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type        string `json:"Type" yaml:"Type"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default     any    `json:"Default,omitempty" yaml:"Default,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names a cross-stack output.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `bclconvert-manager build` on failure
// and from `list`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Stack     string   `json:"stack,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `bclconvert-manager validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Stack     string   `json:"stack"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `bclconvert-manager list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single declared resource and its capability flags.
type ListResource struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Requirements []string `json:"requirements,omitempty"`
	Edges        []string `json:"edges,omitempty"`
}

// RouteResult is the JSON output from `bclconvert-manager route`.
type RouteResult struct {
	Matched bool   `json:"matched"`
	Rule    string `json:"rule,omitempty"`
	Target  string `json:"target,omitempty"`
	Shape   string `json:"shape,omitempty"`
	Input   any    `json:"input,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TemplateDiff lists resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts differences.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
