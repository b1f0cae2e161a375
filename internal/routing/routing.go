// Package routing holds the version-tagged event route tables and matches
// inbound events against them.
//
// Rules are evaluated in declaration order and the first match wins. A
// revision is selected explicitly by the stage configuration; there is no
// implicit latest.
package routing

import (
	"sort"
	"strings"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/registry"
	"github.com/OrcaBus/service-bclconvert-manager/internal/translate"
)

// Predicate maps dotted detail paths to the literal set the value must be
// in. Every path must match.
type Predicate map[string][]string

// Rule routes events of one source and detail type to a state machine.
type Rule struct {
	Name       string
	Source     string
	DetailType string
	Predicate  Predicate
	Target     registry.StateMachineName

	// Shape is the payload layout the rule's events carry. Sequence run
	// events are passed through unchanged and use Current.
	Shape translate.Variant
}

// Spec returns the rule's resource spec.
func (r Rule) Spec() registry.ResourceSpec {
	return registry.ResourceSpec{Name: r.Name, Kind: registry.KindEventRule}
}

// TargetSpec returns the spec of the rule's single target.
func (r Rule) TargetSpec() registry.ResourceSpec {
	return registry.ResourceSpec{Name: r.Name + "To" + upperFirst(string(r.Target)), Kind: registry.KindEventTarget}
}

// Matches reports whether e satisfies the rule.
func (r Rule) Matches(e Event) bool {
	if e.Source != r.Source || e.DetailType != r.DetailType {
		return false
	}
	for path, literals := range r.Predicate {
		v, ok := e.Field(path)
		if !ok || !memberOf(v, literals) {
			return false
		}
	}
	return true
}

// Pattern renders the rule as an EventBridge event pattern.
func (r Rule) Pattern() map[string]any {
	pattern := map[string]any{
		"source":      []string{r.Source},
		"detail-type": []string{r.DetailType},
	}
	if len(r.Predicate) == 0 {
		return pattern
	}

	paths := make([]string, 0, len(r.Predicate))
	for p := range r.Predicate {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	detail := map[string]any{}
	for _, p := range paths {
		keys := strings.Split(p, ".")
		m := detail
		for _, k := range keys[:len(keys)-1] {
			next, ok := m[k].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[k] = next
			}
			m = next
		}
		m[keys[len(keys)-1]] = append([]string(nil), r.Predicate[p]...)
	}
	pattern["detail"] = detail
	return pattern
}

// Table is one revision of the route table.
type Table struct {
	Revision string
	Rules    []Rule
}

func sequenceRunRule(name, detailType string) Rule {
	return Rule{
		Name:       name,
		Source:     config.SequenceRunManagerSource,
		DetailType: detailType,
		Target:     registry.HandleSrmEvent,
		Shape:      translate.Current,
	}
}

func legacyDraftRule(name string) Rule {
	return Rule{
		Name:       name,
		Source:     config.WorkflowManagerEventSource,
		DetailType: config.WorkflowRunStateChangeDetailType,
		Predicate: Predicate{
			"workflowName": {config.WorkflowName},
			"status":       {config.DraftStatus},
		},
		Target: registry.ValidateDraftToReady,
		Shape:  translate.Legacy,
	}
}

func currentDraftRule(name string) Rule {
	return Rule{
		Name:       name,
		Source:     config.WorkflowManagerEventSource,
		DetailType: config.WorkflowRunStateChangeDetailType,
		Predicate: Predicate{
			"workflow.name": {config.WorkflowName},
			"status":        {config.DraftStatus},
		},
		Target: registry.ValidateDraftToReady,
		Shape:  translate.Current,
	}
}

var tables = map[string]Table{
	"2025.06": {
		Revision: "2025.06",
		Rules: []Rule{
			sequenceRunRule("sequenceRunStateChangeRule", config.SequenceRunStateChangeDetailType),
			legacyDraftRule("wrscLegacyDraftRule"),
		},
	},
	// Legacy and current draft rules run side by side until the legacy
	// workflow manager is decommissioned.
	"2025.10": {
		Revision: "2025.10",
		Rules: []Rule{
			sequenceRunRule("srmSampleSheetUpdateEventRule", config.SequenceRunSampleSheetChangeDetailType),
			legacyDraftRule("wrscDraftLegacyEventRule"),
			currentDraftRule("wrscDraftEventRule"),
		},
	},
}

// Revisions lists the known table revisions in order.
func Revisions() []string {
	revs := make([]string, 0, len(tables))
	for r := range tables {
		revs = append(revs, r)
	}
	sort.Strings(revs)
	return revs
}

// Lookup returns a copy of the table for revision.
func Lookup(revision string) (Table, error) {
	t, ok := tables[revision]
	if !ok {
		return Table{}, errs.Config(errs.CodeInvalidConfig, "routeRevision", "unknown route table revision %q (known: %s)",
			revision, strings.Join(Revisions(), ", "))
	}
	return Table{Revision: t.Revision, Rules: append([]Rule(nil), t.Rules...)}, nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
