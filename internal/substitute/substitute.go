// Package substitute resolves __placeholder__ tokens in externally authored
// workflow documents against the bindings registered while building the
// resource graph.
//
// Resolution is a single pass. Substituted values are never rescanned, so a
// value that itself looks like a token is emitted verbatim. Values that are
// CloudFormation intrinsics cannot be inlined; they become Fn::Sub variables
// and the document body is escaped for Fn::Sub.
package substitute

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/intrinsics"
)

var (
	tokenPattern = regexp.MustCompile(`__([a-z][a-z0-9]*(?:_[a-z0-9]+)*)__`)
	keyPattern   = regexp.MustCompile(`^[a-z][a-z0-9]*(?:_[a-z0-9]+)*$`)
)

// ValidKey reports whether key can appear inside a token.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Token renders the placeholder token for key.
func Token(key string) string {
	return "__" + key + "__"
}

// Tokens lists the distinct placeholder keys used by doc, sorted.
func Tokens(doc []byte) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range tokenPattern.FindAllSubmatch(doc, -1) {
		k := string(m[1])
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ResolvedDocument is a document with every token replaced.
type ResolvedDocument struct {
	// Body is the resolved text. When Variables is non-empty it is an
	// Fn::Sub template referencing them as ${key}.
	Body string

	// Variables holds the intrinsic-valued bindings, keyed by placeholder.
	Variables map[string]any
}

// Definition returns the value to place in a DefinitionString property: the
// literal body, or an Fn::Sub over it.
func (d ResolvedDocument) Definition() any {
	if len(d.Variables) == 0 {
		return d.Body
	}
	return intrinsics.SubWithMap{String: d.Body, Variables: d.Variables}
}

// Resolve replaces every token in doc. Any token without a binding fails
// with an unbound placeholder error naming all of them.
func Resolve(doc []byte, bindings Lookup) (ResolvedDocument, error) {
	text := string(doc)
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)

	values := make(map[string]any, len(matches))
	var unbound []string
	sub := false
	for _, m := range matches {
		key := text[m[2]:m[3]]
		if _, done := values[key]; done {
			continue
		}
		v, ok := bindings.Lookup(key)
		if !ok {
			if !contains(unbound, key) {
				unbound = append(unbound, Token(key))
			}
			continue
		}
		values[key] = v
		if intrinsics.IsIntrinsic(v) {
			sub = true
		}
	}
	if len(unbound) > 0 {
		sort.Strings(unbound)
		return ResolvedDocument{}, errs.Substitution(errs.CodeUnboundPlaceholder, "", "%s", strings.Join(unbound, ", "))
	}

	var out strings.Builder
	out.Grow(len(text))
	var vars map[string]any
	if sub {
		vars = make(map[string]any)
	}

	last := 0
	for _, m := range matches {
		out.WriteString(escape(text[last:m[0]], sub))
		key := text[m[2]:m[3]]
		v := values[key]
		if sub && intrinsics.IsIntrinsic(v) {
			vars[key] = v
			out.WriteString("${" + key + "}")
		} else {
			out.WriteString(escape(literal(v), sub))
		}
		last = m[1]
	}
	out.WriteString(escape(text[last:], sub))

	return ResolvedDocument{Body: out.String(), Variables: vars}, nil
}

func contains(list []string, key string) bool {
	tok := Token(key)
	for _, s := range list {
		if s == tok {
			return true
		}
	}
	return false
}

// escape protects literal ${ sequences from Fn::Sub.
func escape(s string, sub bool) string {
	if !sub {
		return s
	}
	return strings.ReplaceAll(s, "${", "${!")
}

func literal(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
