package config

import "time"

// Workflow identity.
const (
	WorkflowName           = "bclconvert"
	DefaultWorkflowVersion = "4.4.4"
	DefaultPayloadVersion  = "2025.10.10"
)

// Parameter store paths. Everything the stack owns lives under the prefix.
const (
	SSMParameterPathPrefix          = "/orcabus/workflows/" + WorkflowName
	SSMParameterPathWorkflowName    = SSMParameterPathPrefix + "/workflow-name"
	SSMParameterPathWorkflowVersion = SSMParameterPathPrefix + "/workflow-version"
	SSMParameterPathPayloadVersion  = SSMParameterPathPrefix + "/payload-version"
	SSMParameterPathPipelineIDs     = SSMParameterPathPrefix + "/pipeline-ids-by-list"
	SSMSchemaRoot                   = SSMParameterPathPrefix + "/schemas"
	SSMSchemaRegistryName           = SSMSchemaRoot + "/registry"
	SSMDraftSchemaName              = SSMSchemaRoot + "/complete-data-draft/latest"
)

// Event bus constants.
const (
	DefaultEventBusName = "OrcaBusMain"
	EventSource         = "orcabus.bclconvert"

	WorkflowRunStateChangeDetailType = "WorkflowRunStateChange"
	WorkflowRunUpdateDetailType      = "WorkflowRunUpdate"
	WorkflowManagerEventSource       = "orcabus.workflowmanager"

	// SequenceRunStateChangeDetailType was replaced by the sample-sheet
	// specific detail type in the 2025.10 route table.
	SequenceRunStateChangeDetailType       = "SequenceRunStateChange"
	SequenceRunSampleSheetChangeDetailType = "SequenceRunSampleSheetChange"
	SequenceRunManagerSource               = "orcabus.sequencerunmanager"
)

// Workflow run statuses.
const (
	DraftStatus     = "DRAFT"
	ReadyStatus     = "READY"
	SucceededStatus = "SUCCEEDED"
)

// Schema registry.
const (
	DefaultSchemaRegistryName = "orcabus.data"
	DraftSchemaName           = "completeDataDraft"
)

// Ingestion queue and pipe.
const (
	EventPipeName             = "BclConvertAnalysisEventPipe"
	IcaQueueName              = "BclConvertAnalysisSqsQueue"
	IcaQueueVisibilityTimeout = 300 * time.Second
	DLQAlarmThreshold         = 1
	DLQMaxReceiveCount        = 3
	DefaultIcaAccountNumber   = "079623148045"
	DefaultSlackTopicName     = "AwsChatBotTopic"
)

// External parameters and secrets read by functions at runtime.
const (
	BaseSpaceAPIURLParameterName = "/manual/BaseSpaceApiUrl"
	BaseSpaceAccessTokenSecretID = "/manual/BaseSpaceAccessTokenSecret"
	HostnameParameterName        = "/hosted_zone/umccr/name"
	DefaultOrcabusTokenSecretID  = "orcabus/token-service-jwt"
	DefaultIcav2BaseURL          = "https://ica.illumina.com/ica/rest"
	DefaultOrcabusAPILayerParam  = "/orcabus/layers/orcabus-api-tools/layer-version-arn"
	DefaultIcav2ToolsLayerParam  = "/orcabus/layers/icav2-tools/layer-version-arn"
	DefaultPipelineID            = "ef5501df-51e1-444b-b484-c9b5f28ac4dc"
	DefaultRouteRevision         = "2025.10"
)

// Stack naming.
const (
	StackPrefix        = "orca-bclconvert"
	StatefulStackName  = "OrcaBusStatefulBclConvertManagerStack"
	StatelessStackName = "OrcaBusStatelessBclConvertManagerStack"
)

// Function runtime settings shared by every function.
const (
	FunctionRuntime      = "python3.12"
	FunctionArchitecture = "arm64"
	FunctionTimeout      = 60
	FunctionMemorySize   = 2048
)

// ExpressLogRetentionDays is the retention of express state machine logs.
const ExpressLogRetentionDays = 1
