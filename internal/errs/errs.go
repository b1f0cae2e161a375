// Package errs defines the classified errors raised while compiling the
// provisioning graph.
//
// Three kinds exist. ConfigError and SubstitutionError are always fatal and
// abort the build. RoutingError is raised for inbound events that match no
// declared rule; callers drop or dead-letter such events.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	// KindConfig covers unresolvable names, unrecognized requirement flags
	// and unsatisfied dependency edges.
	KindConfig Kind = "ConfigError"

	// KindSubstitution covers unbound placeholders in workflow documents.
	KindSubstitution Kind = "SubstitutionError"

	// KindRouting covers events that match no declared routing rule.
	KindRouting Kind = "RoutingError"
)

// Codes narrow a Kind down to a specific failure.
const (
	CodeUnrecognizedRequirement = "unrecognized requirement"
	CodeArtifactNotFound        = "artifact not found"
	CodeUnsatisfiedDependency   = "unsatisfied dependency"
	CodeInvalidConfig           = "invalid configuration"
	CodeDuplicateResource       = "duplicate resource"
	CodeInvalidTransition       = "invalid transition"
	CodeUnboundPlaceholder      = "unbound placeholder"
	CodeFrozenBindings          = "bindings frozen"
	CodeNoMatchingRule          = "no matching rule"
	CodeMalformedEvent          = "malformed event"
)

// Error is a classified provisioning error.
type Error struct {
	Kind     Kind
	Code     string
	Resource string
	Message  string
	Err      error
}

// Error implements the error interface. The kind and code always lead the
// message so operators see them verbatim.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Code)
	if e.Resource != "" {
		msg += fmt.Sprintf(" (resource=%s)", e.Resource)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same kind. An empty code on
// the target matches any code of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// WithResource returns a copy of the error naming the offending resource.
func (e *Error) WithResource(resource string) *Error {
	c := *e
	c.Resource = resource
	return &c
}

// Config creates a ConfigError.
func Config(code, resource, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Code: code, Resource: resource, Message: fmt.Sprintf(format, args...)}
}

// Substitution creates a SubstitutionError.
func Substitution(code, resource, format string, args ...any) *Error {
	return &Error{Kind: KindSubstitution, Code: code, Resource: resource, Message: fmt.Sprintf(format, args...)}
}

// Routing creates a RoutingError.
func Routing(code, format string, args ...any) *Error {
	return &Error{Kind: KindRouting, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind and code.
func Wrap(kind Kind, code, resource string, err error) *Error {
	return &Error{Kind: kind, Code: code, Resource: resource, Err: err}
}

// Targets for errors.Is.
var (
	ErrConfig       = &Error{Kind: KindConfig}
	ErrSubstitution = &Error{Kind: KindSubstitution}
	ErrRouting      = &Error{Kind: KindRouting}

	ErrUnrecognizedRequirement = &Error{Kind: KindConfig, Code: CodeUnrecognizedRequirement}
	ErrArtifactNotFound        = &Error{Kind: KindConfig, Code: CodeArtifactNotFound}
	ErrUnsatisfiedDependency   = &Error{Kind: KindConfig, Code: CodeUnsatisfiedDependency}
	ErrUnboundPlaceholder      = &Error{Kind: KindSubstitution, Code: CodeUnboundPlaceholder}
	ErrNoMatchingRule          = &Error{Kind: KindRouting, Code: CodeNoMatchingRule}
)

// KindOf returns the kind of err, or "" if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFatal reports whether err must abort a build.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfig, KindSubstitution:
		return true
	case KindRouting:
		return false
	}
	return err != nil
}
