package routing

import (
	"github.com/OrcaBus/service-bclconvert-manager/internal/translate"
	"github.com/OrcaBus/service-bclconvert-manager/resources/events"
)

// Resource renders the rule and its state machine target. Current-shape
// rules hand the target the event detail; legacy rules re-nest it with the
// input transformer built from the same table Translate uses.
func (r Rule) Resource(eventBusName any, stateMachineArn, roleArn any) events.Rule {
	target := events.Rule_Target{
		Id:      r.TargetSpec().Name,
		Arn:     stateMachineArn,
		RoleArn: roleArn,
	}
	switch r.Shape {
	case translate.Legacy:
		tr := translate.InputTransformer()
		target.InputTransformer = &events.Rule_InputTransformer{
			InputPathsMap: tr.InputPathsMap,
			InputTemplate: tr.InputTemplate,
		}
	case translate.Current:
		target.InputPath = "$.detail"
	}

	return events.Rule{
		Name:         r.Name,
		EventBusName: eventBusName,
		EventPattern: r.Pattern(),
		State:        events.StateEnabled,
		Targets:      []events.Rule_Target{target},
	}
}
