package substitute

import (
	"reflect"
	"sort"
	"sync"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// Lookup resolves a placeholder key to its value.
type Lookup interface {
	Lookup(key string) (any, bool)
}

// Map is a fixed set of bindings.
type Map map[string]any

// Lookup implements Lookup.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Bindings is the shared placeholder table filled while resources are built.
// It is safe for concurrent use. Once frozen it rejects further binds.
type Bindings struct {
	mu     sync.RWMutex
	values map[string]any
	frozen bool
}

// NewBindings returns an empty table.
func NewBindings() *Bindings {
	return &Bindings{values: make(map[string]any)}
}

// Bind records key. Rebinding a key to an equal value is a no-op; rebinding
// it to a different value is a duplicate resource.
func (b *Bindings) Bind(key string, value any) error {
	if !ValidKey(key) {
		return errs.Config(errs.CodeInvalidConfig, key, "placeholder keys are lower snake case")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return errs.Substitution(errs.CodeFrozenBindings, key, "bind after freeze")
	}
	if old, ok := b.values[key]; ok {
		if reflect.DeepEqual(old, value) {
			return nil
		}
		return errs.Config(errs.CodeDuplicateResource, key, "placeholder bound twice")
	}
	b.values[key] = value
	return nil
}

// Lookup implements Lookup.
func (b *Bindings) Lookup(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

// Freeze stops further binds.
func (b *Bindings) Freeze() {
	b.mu.Lock()
	b.frozen = true
	b.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (b *Bindings) Frozen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frozen
}

// Keys returns every bound key in sorted order.
func (b *Bindings) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Select copies the named keys into a Map. Missing keys are reported as an
// unsatisfied dependency of resource.
func (b *Bindings) Select(resource string, keys ...string) (Map, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(Map, len(keys))
	for _, k := range keys {
		v, ok := b.values[k]
		if !ok {
			return nil, errs.Config(errs.CodeUnsatisfiedDependency, resource, "%s is not built", k)
		}
		out[k] = v
	}
	return out, nil
}
