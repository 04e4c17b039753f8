package registry

import (
	"sort"
	"sync"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Registry holds named step implementations shared across recipes.
// Manifests loaded from a catalog declare steps by name only; binding a
// manifest resolves those names against this registry.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]domain.StepFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]domain.StepFunc),
	}
}

// Register adds a step implementation to the registry.
// If a step with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn domain.StepFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[name] = fn
}

// RegisterAll adds every entry of the given map.
func (r *Registry) RegisterAll(steps map[string]domain.StepFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, fn := range steps {
		r.steps[name] = fn
	}
}

// Lookup returns the implementation registered under name.
func (r *Registry) Lookup(name string) (domain.StepFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.steps[name]
	return fn, ok
}

// Names returns the registered step names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind resolves a manifest's declared steps against the registry and
// returns a runnable recipe. Names without an implementation are
// collected into a MissingStepsError in declaration order.
func (r *Registry) Bind(m *domain.Manifest) (*domain.Recipe, error) {
	if m == nil {
		return nil, domain.ErrNoRecipe
	}
	if m.Steps == nil {
		return nil, domain.ErrNoSteps
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make(map[string]domain.StepFunc, len(m.Steps))
	var missing []string
	for _, name := range m.Steps {
		fn, ok := r.steps[name]
		if !ok || fn == nil {
			missing = append(missing, name)
			continue
		}
		handlers[name] = fn
	}
	if len(missing) > 0 {
		return nil, &domain.MissingStepsError{Recipe: m.Name, Steps: missing}
	}

	// Manifests carry no result handler of their own, so bound recipes
	// surface plain data: the value named by the manifest's result key,
	// or the whole values map. Adapters can serialize either directly.
	onResult := func(st *domain.State) any {
		if m.Result != "" {
			v, _ := st.Value(m.Result)
			return v
		}
		return st.Values
	}

	return domain.NewRecipe(m.Name, m.Steps, handlers, onResult, nil), nil
}
