// Package config holds the per-stage deployment configuration.
//
// Each stage starts from built-in defaults. An optional YAML file overlays
// any field, and the merged result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/logging"
)

// Stage names a deployment account.
type Stage string

const (
	StageBeta  Stage = "BETA"
	StageGamma Stage = "GAMMA"
	StageProd  Stage = "PROD"
)

// Stages lists every stage in promotion order.
var Stages = []Stage{StageBeta, StageGamma, StageProd}

// ParseStage parses a stage name case-insensitively.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", errs.Config(errs.CodeInvalidConfig, "stage", "unknown stage %q", s)
}

// Config is the merged stage configuration.
type Config struct {
	Stage Stage `yaml:"stage" validate:"required,oneof=BETA GAMMA PROD"`

	// Event bus
	EventBusName               string `yaml:"eventBusName" validate:"required"`
	NewWorkflowManagerDeployed bool   `yaml:"newWorkflowManagerDeployed"`
	RouteRevision              string `yaml:"routeRevision" validate:"required"`

	// Alerting and the ICA ingestion queue
	SlackTopicName   string `yaml:"slackTopicName" validate:"required"`
	IcaAccountNumber string `yaml:"icaAccountNumber" validate:"required,numeric,len=12"`

	// Engine parameters
	WorkflowVersion string   `yaml:"workflowVersion" validate:"required"`
	PayloadVersion  string   `yaml:"payloadVersion" validate:"required"`
	PipelineIDs     []string `yaml:"pipelineIds" validate:"required,min=1,dive,uuid4"`

	// Schema registry
	SchemaRegistryName string `yaml:"schemaRegistryName" validate:"required"`

	// External platform parameters and secrets
	BaseSpaceURLParameterName    string `yaml:"baseSpaceUrlParameterName" validate:"required,startswith=/"`
	BaseSpaceAccessTokenSecretID string `yaml:"baseSpaceAccessTokenSecretId" validate:"required"`
	Icav2BaseURL                 string `yaml:"icav2BaseUrl" validate:"required,url"`
	Icav2AccessTokenSecretID     string `yaml:"icav2AccessTokenSecretId" validate:"required"`
	OrcabusTokenSecretID         string `yaml:"orcabusTokenSecretId" validate:"required"`
	HostnameParameterName        string `yaml:"hostnameParameterName" validate:"required,startswith=/"`

	// Shared layers are published by the platform and looked up by parameter name.
	OrcabusAPIToolsLayerParameter string `yaml:"orcabusApiToolsLayerParameter" validate:"required,startswith=/"`
	Icav2ToolsLayerParameter      string `yaml:"icav2ToolsLayerParameter" validate:"required,startswith=/"`

	// Artifacts bucket holding function code bundles.
	ArtifactBucket string `yaml:"artifactBucket" validate:"required"`

	Logging logging.Config `yaml:"logging"`
}

var icav2SecretByStage = map[Stage]string{
	StageBeta:  "ICAv2JWTKey-umccr-prod-service-dev",
	StageGamma: "ICAv2JWTKey-umccr-prod-service-staging",
	StageProd:  "ICAv2JWTKey-umccr-prod-service-production",
}

var artifactBucketByStage = map[Stage]string{
	StageBeta:  "orcabus-artifacts-843407916570-ap-southeast-2",
	StageGamma: "orcabus-artifacts-455634345446-ap-southeast-2",
	StageProd:  "orcabus-artifacts-472057503814-ap-southeast-2",
}

// Default returns the built-in configuration for stage.
func Default(stage Stage) Config {
	return Config{
		Stage:                         stage,
		EventBusName:                  DefaultEventBusName,
		NewWorkflowManagerDeployed:    true,
		RouteRevision:                 DefaultRouteRevision,
		SlackTopicName:                DefaultSlackTopicName,
		IcaAccountNumber:              DefaultIcaAccountNumber,
		WorkflowVersion:               DefaultWorkflowVersion,
		PayloadVersion:                DefaultPayloadVersion,
		PipelineIDs:                   []string{DefaultPipelineID},
		SchemaRegistryName:            DefaultSchemaRegistryName,
		BaseSpaceURLParameterName:     BaseSpaceAPIURLParameterName,
		BaseSpaceAccessTokenSecretID:  BaseSpaceAccessTokenSecretID,
		Icav2BaseURL:                  DefaultIcav2BaseURL,
		Icav2AccessTokenSecretID:      icav2SecretByStage[stage],
		OrcabusTokenSecretID:          DefaultOrcabusTokenSecretID,
		HostnameParameterName:         HostnameParameterName,
		OrcabusAPIToolsLayerParameter: DefaultOrcabusAPILayerParam,
		Icav2ToolsLayerParameter:      DefaultIcav2ToolsLayerParam,
		ArtifactBucket:                artifactBucketByStage[stage],
		Logging:                       logging.DefaultConfig(),
	}
}

// Load returns the configuration for stage, overlaid with the YAML file at
// path when path is non-empty.
func Load(stage Stage, path string) (*Config, error) {
	cfg := Default(stage)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.KindConfig, errs.CodeInvalidConfig, path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errs.Wrap(errs.KindConfig, errs.CodeInvalidConfig, path, fmt.Errorf("parsing yaml: %w", err))
		}
		if cfg.Stage != stage {
			return nil, errs.Config(errs.CodeInvalidConfig, path, "file declares stage %s, building %s", cfg.Stage, stage)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks struct constraints and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Wrap(errs.KindConfig, errs.CodeInvalidConfig, "", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errs.Config(errs.CodeInvalidConfig, string(c.Stage), "%s", strings.Join(fields, "; "))
}

// StateMachineName returns the deployed name of a state machine.
func StateMachineName(name string) string {
	return StackPrefix + "--" + name
}
