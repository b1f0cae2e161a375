// Package translate maps the two known workflow event payload layouts onto
// the canonical workflow input. Each variant has one total translator.
//
// The legacy field table also renders the EventBridge input transformer
// deployed on legacy rules, so the deployed re-nesting and Translate cannot
// drift apart.
package translate

import (
	"fmt"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// Variant tags the payload layout of an inbound event.
type Variant int

const (
	// Legacy is the flat detail emitted by the first workflow manager.
	Legacy Variant = iota + 1
	// Current is the nested detail; it is already canonical.
	Current
)

func (v Variant) String() string {
	switch v {
	case Legacy:
		return "Legacy"
	case Current:
		return "Current"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// WorkflowInput is the canonical input every workflow target is written
// against.
type WorkflowInput map[string]any

type legacyField struct {
	from string
	to   []string
}

var legacyFields = []legacyField{
	{from: "status", to: []string{"status"}},
	{from: "timestamp", to: []string{"timestamp"}},
	{from: "workflowName", to: []string{"workflow", "name"}},
	{from: "workflowVersion", to: []string{"workflow", "version"}},
	{from: "workflowRunName", to: []string{"workflowRunName"}},
	{from: "portalRunId", to: []string{"portalRunId"}},
	{from: "linkedLibraries", to: []string{"libraries"}},
	{from: "payload", to: []string{"payload"}},
}

// Translate converts an event detail of the given variant. Legacy fields
// absent from the detail are absent from the result; undeclared legacy
// fields are dropped.
func Translate(detail map[string]any, variant Variant) (WorkflowInput, error) {
	switch variant {
	case Legacy:
		return translateLegacy(detail), nil
	case Current:
		return WorkflowInput(detail), nil
	}
	return nil, errs.Routing(errs.CodeMalformedEvent, "undeclared event shape %s", variant)
}

func translateLegacy(detail map[string]any) WorkflowInput {
	out := WorkflowInput{}
	for _, f := range legacyFields {
		v, ok := detail[f.from]
		if !ok {
			continue
		}
		setPath(out, f.to, v)
	}
	return out
}

func setPath(m map[string]any, path []string, v any) {
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
