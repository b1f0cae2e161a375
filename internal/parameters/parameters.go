// Package parameters renders the parameter store entries owned by the
// stateful stack. Functions and state machines read these at runtime.
package parameters

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/resources/ssm"
)

// Parameter is one parameter store entry and its logical ID.
type Parameter struct {
	LogicalID string
	Resource  ssm.Parameter
}

// Build returns the stack's parameters in a fixed order.
func Build(cfg *config.Config) ([]Parameter, error) {
	pipelines, err := PipelineIDList(cfg.PipelineIDs)
	if err != nil {
		return nil, err
	}

	return []Parameter{
		stringParameter("WorkflowNameParameter", config.SSMParameterPathWorkflowName, config.WorkflowName,
			"Name of the workflow registered with the workflow manager"),
		stringParameter("WorkflowVersionParameter", config.SSMParameterPathWorkflowVersion, cfg.WorkflowVersion,
			"Default workflow version for new drafts"),
		stringParameter("PayloadVersionParameter", config.SSMParameterPathPayloadVersion, cfg.PayloadVersion,
			"Payload version stamped on emitted events"),
		stringParameter("PipelineIdsParameter", config.SSMParameterPathPipelineIDs, pipelines,
			"ICAv2 pipeline IDs accepted as BCLConvert analyses"),
		stringParameter("SchemaRegistryParameter", config.SSMSchemaRegistryName, cfg.SchemaRegistryName,
			"Schema registry holding the draft data schema"),
		stringParameter("DraftSchemaParameter", config.SSMDraftSchemaName, config.DraftSchemaName,
			"Schema validated before a draft is promoted to ready"),
	}, nil
}

// PipelineIDList renders pipeline IDs as a JSON list of canonical,
// lower-case UUIDs. Duplicates are dropped keeping the first occurrence.
func PipelineIDList(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", errs.Config(errs.CodeInvalidConfig, config.SSMParameterPathPipelineIDs, "no pipeline ids")
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return "", errs.Wrap(errs.KindConfig, errs.CodeInvalidConfig, config.SSMParameterPathPipelineIDs,
				fmt.Errorf("pipeline id %q: %w", id, err))
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u.String())
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func stringParameter(logicalID, name, value, description string) Parameter {
	return Parameter{
		LogicalID: logicalID,
		Resource: ssm.Parameter{
			Name:        name,
			Type:        ssm.TypeString,
			Value:       value,
			Description: description,
		},
	}
}
