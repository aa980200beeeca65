package dag

import (
	"context"
	"fmt"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
)

// Build expands the root spec into a complete, validated dependency graph.
//
// Expansion is depth-first. A spec requested from several branches resolves
// to the same Node (structural sharing by spec identity). Re-entering a spec
// that is still being expanded on the current path is a cycle and fails the
// build with the full path. Any error from a task's Requires or Outputs is a
// configuration error and aborts the build.
func Build(ctx context.Context, reg *registry.Registry, root task.Spec) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph expansion.", "root", root.Key())

	b := &builder{
		reg:        reg,
		graph:      &Graph{byKey: make(map[string]*Node)},
		inProgress: make(map[string]bool),
	}

	rootNode, err := b.expand(ctx, root)
	if err != nil {
		return nil, err
	}
	b.graph.Root = rootNode

	logger.Debug("Build: graph expansion complete.", "node_count", b.graph.Len())
	return b.graph, nil
}

type builder struct {
	reg        *registry.Registry
	graph      *Graph
	inProgress map[string]bool
	// stack mirrors inProgress in order, so cycle errors can report the path.
	stack []string
}

func (b *builder) expand(ctx context.Context, spec task.Spec) (*Node, error) {
	key := spec.Key()

	if b.inProgress[key] {
		return nil, b.cycleError(key)
	}
	if existing, ok := b.graph.byKey[key]; ok {
		return existing, nil
	}

	impl, err := b.reg.Lookup(spec.Kind)
	if err != nil {
		return nil, err
	}

	outputs, err := impl.Outputs(spec.Params)
	if err != nil {
		return nil, fmt.Errorf("task %s: resolve outputs: %w", key, err)
	}

	deps, err := impl.Requires(spec.Params)
	if err != nil {
		return nil, fmt.Errorf("task %s: resolve dependencies: %w", key, err)
	}

	b.inProgress[key] = true
	b.stack = append(b.stack, key)
	defer func() {
		delete(b.inProgress, key)
		b.stack = b.stack[:len(b.stack)-1]
	}()

	node := &Node{
		Spec:    spec,
		Task:    impl,
		Outputs: outputs,
	}

	seen := make(map[string]bool, len(deps))
	for _, depSpec := range deps {
		if seen[depSpec.Key()] {
			// A task declaring the same dependency twice collapses to one
			// edge, matching the graph-wide structural sharing.
			continue
		}
		seen[depSpec.Key()] = true

		depNode, err := b.expand(ctx, depSpec)
		if err != nil {
			return nil, err
		}
		node.Deps = append(node.Deps, depNode)
		depNode.Dependents = append(depNode.Dependents, node)
		if depNode.Depth+1 > node.Depth {
			node.Depth = depNode.Depth + 1
		}
	}

	node.Order = len(b.graph.Nodes)
	b.graph.byKey[key] = node
	b.graph.Nodes = append(b.graph.Nodes, node)
	return node, nil
}

// cycleError builds a CycleError whose path starts at the first occurrence
// of the re-entered key on the expansion stack.
func (b *builder) cycleError(key string) *CycleError {
	path := []string{key}
	for i, k := range b.stack {
		if k == key {
			path = append([]string{}, b.stack[i:]...)
			path = append(path, key)
			break
		}
	}
	return &CycleError{Path: path}
}
