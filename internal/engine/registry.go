package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// NameDefault resolves to the registry's default engine.
const NameDefault = "default"

// ErrUnknownEngine is returned when no engine is registered under a name.
var ErrUnknownEngine = errors.New("engine is not registered")

// Info pairs an engine name with its capabilities and current state.
type Info struct {
	Name         string       `json:"name"`
	State        State        `json:"state"`
	Capabilities Capabilities `json:"capabilities"`
}

// Registry holds named engines and resolves which one to use.
type Registry struct {
	mu          sync.RWMutex
	engines     map[string]Engine
	defaultName string
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]Engine),
	}
}

// Register adds an engine under the given name. The first registered engine
// becomes the default.
func (r *Registry) Register(name string, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = e
	if r.defaultName == "" {
		r.defaultName = name
	}
}

// SetDefault selects the engine that NameDefault and "" resolve to.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[name]; !ok {
		return fmt.Errorf("set default %q: %w", name, ErrUnknownEngine)
	}
	r.defaultName = name
	return nil
}

// Resolve returns the engine registered under name. An empty name or
// NameDefault resolves to the default engine.
func (r *Registry) Resolve(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target := name
	if target == "" || target == NameDefault {
		target = r.defaultName
	}

	e, ok := r.engines[target]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrUnknownEngine)
	}
	return e, nil
}

// List returns information about all registered engines, sorted by name
// for a stable API response.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.engines))
	for name, e := range r.engines {
		infos = append(infos, Info{
			Name:         name,
			State:        e.State(),
			Capabilities: e.Capabilities(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// ShutdownAll requests shutdown of every registered engine.
func (r *Registry) ShutdownAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.engines {
		e.Shutdown()
	}
}
