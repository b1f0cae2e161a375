package builder

import (
	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/permissions"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/serialize"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
	"github.com/OrcaBus/service-bclconvert-manager/resources/iam"
	"github.com/OrcaBus/service-bclconvert-manager/resources/lambda"
)

// Function is a built compute function and its execution role.
type Function struct {
	Name          registry.FunctionName
	Requirements  registry.Requirements
	LogicalID     string
	RoleLogicalID string
	Resource      lambda.Function
	Role          iam.Role
	Grants        []permissions.Grant
}

// Arn references the function's ARN.
func (f *Function) Arn() intrinsics.GetAtt {
	return intrinsics.Arn(f.LogicalID)
}

// DependsOn lists the logical IDs the function references.
func (f *Function) DependsOn() []string {
	deps := []string{f.RoleLogicalID}
	if f.Requirements.Has(registry.NeedsBsshToolsLayer) {
		deps = append(deps, BsshToolsLayerLogicalID)
	}
	return deps
}

// String describes the function and its grant count.
func (f *Function) String() string {
	return describe(f.Name.Spec(), f.Grants)
}

// BuildFunction builds a function, wires its flags and registers its ARN
// binding. A function is built at most once.
func (b *Builder) BuildFunction(name registry.FunctionName, reqs registry.Requirements) (*Function, error) {
	spec := name.Spec()
	if err := reqs.Validate(registry.KindFunction); err != nil {
		return nil, err.WithResource(spec.Name)
	}
	if _, ok := b.Function(name); ok {
		return nil, errs.Config(errs.CodeDuplicateResource, spec.Name, "function already built")
	}

	bundle, err := b.shared.Artifacts.Function(spec.Name)
	if err != nil {
		return nil, err
	}

	cfg := b.shared.Config
	logicalID := FunctionLogicalID(name)
	fn := &Function{
		Name:          name,
		Requirements:  reqs,
		LogicalID:     logicalID,
		RoleLogicalID: logicalID + "Role",
		Resource: lambda.Function{
			Description:   bundle.Description,
			Runtime:       config.FunctionRuntime,
			Architectures: []string{config.FunctionArchitecture},
			Handler:       serialize.ToSnakeCase(spec.Name) + ".handler",
			Code: lambda.Function_Code{
				S3Bucket: cfg.ArtifactBucket,
				S3Key:    bundle.Key,
			},
			Role:       intrinsics.Arn(logicalID + "Role"),
			Timeout:    config.FunctionTimeout,
			MemorySize: config.FunctionMemorySize,
		},
	}

	env := map[string]any{}
	for _, r := range reqs {
		switch r {
		case registry.NeedsOrcabusAPITools:
			fn.Resource.Layers = append(fn.Resource.Layers, intrinsics.Ref{LogicalName: OrcabusAPIToolsLayerParameter})
			env["HOSTNAME_SSM_PARAMETER_NAME"] = cfg.HostnameParameterName
			env["ORCABUS_TOKEN_SECRET_ID"] = cfg.OrcabusTokenSecretID
		case registry.NeedsIcav2Tools:
			fn.Resource.Layers = append(fn.Resource.Layers, intrinsics.Ref{LogicalName: Icav2ToolsLayerParameter})
			env["ICAV2_BASE_URL"] = cfg.Icav2BaseURL
			env["ICAV2_ACCESS_TOKEN_SECRET_ID"] = cfg.Icav2AccessTokenSecretID
		case registry.NeedsSchemaRegistryAccess:
			env["SSM_REGISTRY_NAME"] = config.SSMSchemaRegistryName
			env["SSM_SCHEMA_NAME"] = config.SSMDraftSchemaName
		case registry.NeedsBsshToolsLayer:
			fn.Resource.Layers = append(fn.Resource.Layers, intrinsics.Ref{LogicalName: BsshToolsLayerLogicalID})
			env["BASESPACE_URL_SSM_PARAMETER_NAME"] = cfg.BaseSpaceURLParameterName
			env["BASESPACE_ACCESS_TOKEN_SECRET_ID"] = cfg.BaseSpaceAccessTokenSecretID
		case registry.NeedsDefaultWorkflowVersion:
			env["DEFAULT_WORKFLOW_VERSION_SSM_PARAMETER_NAME"] = config.SSMParameterPathWorkflowVersion
		case registry.NeedsParameterStoreAccess:
			// Grant only; functions read parameters by the names above.
		case registry.NeedsEventPut, registry.IsExpress:
			return nil, unexpected(spec, r)
		default:
			return nil, unexpected(spec, r)
		}
	}
	if len(env) > 0 {
		fn.Resource.Environment = &lambda.Function_Environment{Variables: env}
	}

	grants, err := b.permissions.Wire(spec, reqs, nil)
	if err != nil {
		return nil, err
	}
	fn.Grants = grants
	fn.Role = roleFor("lambda.amazonaws.com", logicalID+"Policy", grants, intrinsics.Sub{String: lambdaBasicExecutionPolicy})

	if err := b.shared.Bindings.Bind(FunctionBindingKey(name), fn.Arn()); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.functions[name]; ok {
		return nil, errs.Config(errs.CodeDuplicateResource, spec.Name, "function already built")
	}
	b.functions[name] = fn
	return fn, nil
}
