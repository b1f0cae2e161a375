// Package artifact loads the externally authored deployment artifacts:
// function code bundle locations and state machine definition templates.
package artifact

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// ManifestFile is the manifest path at the root of an artifact tree.
const ManifestFile = "artifacts.yaml"

// Bundle is a code bundle in the artifact bucket.
type Bundle struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

// Definition points at a state machine definition template.
type Definition struct {
	Template string `yaml:"template"`
}

// Manifest is the parsed artifacts.yaml.
type Manifest struct {
	Layers        map[string]Bundle     `yaml:"layers"`
	Functions     map[string]Bundle     `yaml:"functions"`
	StateMachines map[string]Definition `yaml:"stateMachines"`
}

// Store resolves artifacts by resource name.
type Store struct {
	fsys     fs.FS
	manifest Manifest
}

// Open reads the manifest from the root of fsys.
func Open(fsys fs.FS) (*Store, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, errs.CodeArtifactNotFound, ManifestFile, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errs.Wrap(errs.KindConfig, errs.CodeInvalidConfig, ManifestFile, fmt.Errorf("parsing manifest: %w", err))
	}
	return &Store{fsys: fsys, manifest: m}, nil
}

// Function returns the code bundle of a function.
func (s *Store) Function(name string) (Bundle, error) {
	b, ok := s.manifest.Functions[name]
	if !ok || b.Key == "" {
		return Bundle{}, errs.Config(errs.CodeArtifactNotFound, name, "no code bundle in %s", ManifestFile)
	}
	return b, nil
}

// Layer returns the code bundle of a layer built by this stack.
func (s *Store) Layer(name string) (Bundle, error) {
	b, ok := s.manifest.Layers[name]
	if !ok || b.Key == "" {
		return Bundle{}, errs.Config(errs.CodeArtifactNotFound, name, "no layer bundle in %s", ManifestFile)
	}
	return b, nil
}

// Definition returns the raw definition template of a state machine.
func (s *Store) Definition(name string) ([]byte, error) {
	d, ok := s.manifest.StateMachines[name]
	if !ok || d.Template == "" {
		return nil, errs.Config(errs.CodeArtifactNotFound, name, "no definition template in %s", ManifestFile)
	}

	data, err := fs.ReadFile(s.fsys, path.Clean(d.Template))
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, errs.CodeArtifactNotFound, name, err)
	}
	return data, nil
}

// Paths lists every file the manifest references, manifest included.
// The watch command rebuilds only when one of them changes.
func (s *Store) Paths() []string {
	paths := []string{ManifestFile}
	for _, d := range s.manifest.StateMachines {
		paths = append(paths, path.Clean(d.Template))
	}
	sort.Strings(paths)
	return paths
}
