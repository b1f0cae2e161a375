// Package differ compares two synthesized templates resource by resource.
// The diff command uses it to review what a configuration change does to a
// stack before it is deployed.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons. Policy
	// statements and rule targets are order independent.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    bclconvert.TemplateDiff `json:"diff"`
	Summary bclconvert.DiffSummary  `json:"summary"`

	// Parameters and Outputs list names whose definitions differ.
	Parameters []string `json:"parameters,omitempty"`
	Outputs    []string `json:"outputs,omitempty"`
}

// Compare compares two templates and returns the differences.
func Compare(template1, template2 *bclconvert.Template, opts Options) (*Result, error) {
	result := &Result{}

	res1 := template1.Resources
	res2 := template2.Resources

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, bclconvert.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, bclconvert.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, bclconvert.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Parameters = changedKeys(toAnyMap(template1.Parameters), toAnyMap(template2.Parameters), opts)
	result.Outputs = changedKeys(toAnyMap(template1.Outputs), toAnyMap(template2.Outputs), opts)

	result.Summary = bclconvert.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a template from a JSON or YAML file.
func LoadTemplate(path string) (*bclconvert.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var template bclconvert.Template
	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}

func compareResources(def1, def2 bclconvert.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareProperties reports changed leaves by dotted path. Intrinsic
// functions are compared whole.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := join(prefix, key)

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, path+" added")
			continue
		}
		if deepEqual(val1, val2, opts) {
			continue
		}
		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}
		changes = append(changes, path+" modified")
	}

	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, join(prefix, key)+" removed")
		}
	}

	sort.Strings(changes)
	return changes
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || len(k) > 4 && k[:4] == "Fn::"
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts slices by their JSON encoding, recursively.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		keys := make([]string, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
		}
		for i, elem := range result {
			data, _ := json.Marshal(elem)
			keys[i] = string(data)
		}
		sort.Sort(byKey{result, keys})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

type byKey struct {
	values []any
	keys   []string
}

func (s byKey) Len() int           { return len(s.values) }
func (s byKey) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s byKey) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}

// changedKeys lists keys added, removed or modified between a and b.
func changedKeys(a, b map[string]any, opts Options) []string {
	var out []string
	for k, vb := range b {
		if va, ok := a[k]; !ok || !deepEqual(va, vb, opts) {
			out = append(out, k)
		}
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// toAnyMap round-trips a typed section through JSON so values decoded from
// a file and values built in memory compare alike.
func toAnyMap[T any](m map[string]T) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err == nil {
			out[k] = decoded
		}
	}
	return out
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []bclconvert.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
