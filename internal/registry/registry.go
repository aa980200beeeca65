package registry

import (
	"fmt"
	"sort"

	"github.com/vk/taskgridgo/internal/task"
)

// Module is the interface task libraries implement to contribute their task
// kinds to a registry.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered task implementations for a single
// application instance, keyed by kind name.
type Registry struct {
	tasks map[string]task.Task
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{tasks: make(map[string]task.Task)}
}

// Register adds a task implementation. Registering the same kind twice is a
// programmer error and panics, matching the behavior of duplicate
// registrations in other static tables.
func (r *Registry) Register(t task.Task) {
	kind := t.Kind()
	if kind == "" {
		panic("registry: task with empty kind")
	}
	if _, exists := r.tasks[kind]; exists {
		panic(fmt.Sprintf("registry: task kind %q registered twice", kind))
	}
	r.tasks[kind] = t
}

// Lookup resolves a kind name to its implementation.
func (r *Registry) Lookup(kind string) (task.Task, error) {
	t, ok := r.tasks[kind]
	if !ok {
		return nil, fmt.Errorf("unknown task kind %q (known kinds: %v)", kind, r.Kinds())
	}
	return t, nil
}

// Kinds returns all registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.tasks))
	for k := range r.tasks {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
