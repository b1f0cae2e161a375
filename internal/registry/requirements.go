package registry

import (
	"fmt"
	"sort"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// Requirement is a capability flag. The set is closed: the builder and the
// permission engine switch over it exhaustively.
type Requirement int

const (
	// Function flags.
	NeedsOrcabusAPITools Requirement = iota + 1
	NeedsIcav2Tools
	NeedsSchemaRegistryAccess
	NeedsBsshToolsLayer
	NeedsDefaultWorkflowVersion

	// Shared by functions and state machines.
	NeedsParameterStoreAccess

	// State machine flags.
	NeedsEventPut
	IsExpress

	requirementEnd
)

var requirementNames = map[Requirement]string{
	NeedsOrcabusAPITools:        "needsOrcabusApiTools",
	NeedsIcav2Tools:             "needsIcav2Tools",
	NeedsSchemaRegistryAccess:   "needsSchemaRegistryAccess",
	NeedsBsshToolsLayer:         "needsBsshToolsLayer",
	NeedsDefaultWorkflowVersion: "needsDefaultWorkflowVersion",
	NeedsParameterStoreAccess:   "needsSsmParametersAccess",
	NeedsEventPut:               "needsEventPutPermission",
	IsExpress:                   "isExpressSfn",
}

func (r Requirement) String() string {
	if name, ok := requirementNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Requirement(%d)", int(r))
}

// Known reports whether r is a declared flag.
func (r Requirement) Known() bool {
	return r > 0 && r < requirementEnd
}

// AppliesTo reports whether r has a wiring action for resources of kind k.
func (r Requirement) AppliesTo(k Kind) bool {
	switch r {
	case NeedsOrcabusAPITools, NeedsIcav2Tools, NeedsSchemaRegistryAccess,
		NeedsBsshToolsLayer, NeedsDefaultWorkflowVersion:
		return k == KindFunction
	case NeedsParameterStoreAccess:
		return k == KindFunction || k == KindStateMachine
	case NeedsEventPut, IsExpress:
		return k == KindStateMachine
	}
	return false
}

// ParseRequirement resolves a flag by name.
func ParseRequirement(name string) (Requirement, error) {
	for r, n := range requirementNames {
		if n == name {
			return r, nil
		}
	}
	return 0, errs.Config(errs.CodeUnrecognizedRequirement, "", "flag %q", name)
}

// Requirements is an ordered, duplicate-free set of flags.
type Requirements []Requirement

// NewRequirements builds a set from flags. Order and duplicates in the input
// do not matter.
func NewRequirements(flags ...Requirement) Requirements {
	seen := make(map[Requirement]bool, len(flags))
	out := make(Requirements, 0, len(flags))
	for _, f := range flags {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseRequirements builds a set from flag names.
func ParseRequirements(names ...string) (Requirements, error) {
	flags := make([]Requirement, 0, len(names))
	for _, n := range names {
		r, err := ParseRequirement(n)
		if err != nil {
			return nil, err
		}
		flags = append(flags, r)
	}
	return NewRequirements(flags...), nil
}

// Has reports whether r is in the set.
func (rs Requirements) Has(r Requirement) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

// Validate fails on the first flag that is unknown or has no wiring action
// for kind.
func (rs Requirements) Validate(kind Kind) *errs.Error {
	for _, r := range rs {
		if !r.Known() {
			return errs.Config(errs.CodeUnrecognizedRequirement, "", "flag %s", r)
		}
		if !r.AppliesTo(kind) {
			return errs.Config(errs.CodeUnrecognizedRequirement, "", "flag %s has no wiring for %s", r, kind)
		}
	}
	return nil
}

func (rs Requirements) clone() Requirements {
	return append(Requirements(nil), rs...)
}
