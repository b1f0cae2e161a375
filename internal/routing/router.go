package routing

import (
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/translate"
)

// Router matches events against one table revision.
type Router struct {
	table Table
}

// NewRouter returns a router over the given revision.
func NewRouter(revision string) (*Router, error) {
	t, err := Lookup(revision)
	if err != nil {
		return nil, err
	}
	return &Router{table: t}, nil
}

// Revision returns the table revision in use.
func (r *Router) Revision() string {
	return r.table.Revision
}

// Rules returns the table's rules in declaration order.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.table.Rules...)
}

// Match returns the first rule e satisfies.
func (r *Router) Match(e Event) (Rule, bool) {
	for _, rule := range r.table.Rules {
		if rule.Matches(e) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Routed is a matched event and the input its target receives.
type Routed struct {
	Rule  Rule
	Input translate.WorkflowInput
}

// Dispatch matches e and translates its detail for the target. An event
// that matches no rule is a routing error; it is never translated under a
// guessed shape.
func (r *Router) Dispatch(e Event) (Routed, error) {
	rule, ok := r.Match(e)
	if !ok {
		return Routed{}, errs.Routing(errs.CodeNoMatchingRule, "source=%s detail-type=%s", e.Source, e.DetailType)
	}
	input, err := translate.Translate(e.Detail, rule.Shape)
	if err != nil {
		return Routed{}, err
	}
	return Routed{Rule: rule, Input: input}, nil
}
