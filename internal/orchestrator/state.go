package orchestrator

import (
	"fmt"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// State is a stage of the build. Stages only move forward.
type State int

const (
	StateInit State = iota
	StateFunctionsBuilt
	StateStateMachinesBuilt
	StateRulesBuilt
	StateTargetsWired
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateFunctionsBuilt:
		return "FunctionsBuilt"
	case StateStateMachinesBuilt:
		return "StateMachinesBuilt"
	case StateRulesBuilt:
		return "RulesBuilt"
	case StateTargetsWired:
		return "TargetsWired"
	case StateDone:
		return "Done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// next is the only state reachable from s.
func (s State) next() (State, bool) {
	if s >= StateDone {
		return s, false
	}
	return s + 1, true
}

func (o *Orchestrator) advance(to State) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	want, ok := o.state.next()
	if !ok || want != to {
		return errs.Config(errs.CodeInvalidTransition, "", "%s -> %s", o.state, to)
	}
	o.state = to
	o.log.Info().Str("state", to.String()).Msg("transition")
	return nil
}
