package dag

import (
	"strings"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/task"
)

// Node is one task instance in the execution graph: a spec bound to its
// resolved implementation, dependency list and declared outputs. Nodes are
// created during expansion and immutable afterwards; all execution state
// lives in the executor, not here.
type Node struct {
	// Spec is the identity of this instance.
	Spec task.Spec
	// Task is the implementation resolved from the registry.
	Task task.Task
	// Deps holds the dependencies in declaration order, deduplicated.
	Deps []*Node
	// Dependents holds the nodes that depend on this one.
	Dependents []*Node
	// Outputs are the artifacts this instance must produce.
	Outputs []artifact.Ref
	// Depth is the longest chain of dependencies below this node; leaves
	// are 0. Used as the primary key of the scheduling tie-break.
	Depth int
	// Order is the position in expansion order, the secondary tie-break key.
	Order int
}

// Key returns the canonical identity of the node's spec.
func (n *Node) Key() string {
	return n.Spec.Key()
}

// Graph is the expanded set of task instances reachable from the root.
// A spec appears at most once regardless of how many parents reach it.
type Graph struct {
	// Root is the requested task instance.
	Root *Node
	// Nodes lists every instance in expansion order.
	Nodes []*Node

	byKey map[string]*Node
}

// Lookup returns the node for a spec key, if present.
func (g *Graph) Lookup(key string) (*Node, bool) {
	n, ok := g.byKey[key]
	return n, ok
}

// Len returns the number of task instances in the graph.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// CycleError reports a dependency cycle found during expansion. Path holds
// the spec keys along the cycle, ending with the re-entered spec.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "dependency cycle detected: " + strings.Join(e.Path, " -> ")
}
