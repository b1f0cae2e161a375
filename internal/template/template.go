// Package template assembles CloudFormation templates from built resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	bclconvert "github.com/OrcaBus/service-bclconvert-manager"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
	"github.com/OrcaBus/service-bclconvert-manager/internal/serialize"
)

type entry struct {
	resource  bclconvert.Resource
	dependsOn []string
}

// Builder collects resources, parameters and outputs for one template.
type Builder struct {
	description string
	resources   map[string]entry
	parameters  map[string]bclconvert.Parameter
	outputs     map[string]bclconvert.Output
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]entry),
		parameters:  make(map[string]bclconvert.Parameter),
		outputs:     make(map[string]bclconvert.Output),
	}
}

// Add registers a resource under logicalID. dependsOn names resources that
// must be created first; each must also be added before Build.
func (b *Builder) Add(logicalID string, r bclconvert.Resource, dependsOn ...string) error {
	if _, exists := b.resources[logicalID]; exists {
		return errs.Config(errs.CodeDuplicateResource, logicalID, "logical ID already in template")
	}
	b.resources[logicalID] = entry{resource: r, dependsOn: dependsOn}
	return nil
}

// AddParameter registers a template parameter.
func (b *Builder) AddParameter(name string, p bclconvert.Parameter) {
	b.parameters[name] = p
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, o bclconvert.Output) {
	b.outputs[name] = o
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*bclconvert.Template, error) {
	if _, err := b.Order(); err != nil {
		return nil, err
	}

	template := &bclconvert.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.description,
		Resources:                make(map[string]bclconvert.ResourceDef, len(b.resources)),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]bclconvert.Parameter, len(b.parameters))
		for name, p := range b.parameters {
			template.Parameters[name] = p
		}
	}

	for name, e := range b.resources {
		props, err := serialize.Resource(e.resource)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		var deps []string
		if len(e.dependsOn) > 0 {
			deps = append([]string(nil), e.dependsOn...)
			sort.Strings(deps)
		}

		template.Resources[name] = bclconvert.ResourceDef{
			Type:       e.resource.ResourceType(),
			Properties: props,
			DependsOn:  deps,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]bclconvert.Output, len(b.outputs))
		for name, o := range b.outputs {
			v, err := serialize.Value(o.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			o.Value = v
			template.Outputs[name] = o
		}
	}

	return template, nil
}

// Order returns logical IDs in dependency order. Ties break alphabetically
// so the order is stable across builds.
func (b *Builder) Order() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, e := range b.resources {
		for _, dep := range e.dependsOn {
			if _, exists := b.resources[dep]; !exists {
				return nil, errs.Config(errs.CodeUnsatisfiedDependency, name, "depends on %s which is not in the template", dep)
			}
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}
	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range b.resources[node].dependsOn {
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return errors.New("circular dependency detected: " + strings.Join(cycle, " → "))
	}
	return errors.New("circular dependency detected")
}

// ToJSON serializes the template to JSON.
func ToJSON(t *bclconvert.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *bclconvert.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
