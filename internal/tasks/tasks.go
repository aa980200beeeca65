package tasks

import (
	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
)

// Kind names of the built-in tasks.
const (
	KindCreateGraph     = "create_graph"
	KindControllability = "compute_controllability"
	KindPlot            = "plot_controllability"
)

// Library bundles the built-in tasks for registration.
type Library struct {
	Roots artifact.Roots
}

// New creates the task library writing under the given artifact roots.
func New(roots artifact.Roots) *Library {
	return &Library{Roots: roots}
}

// Register implements registry.Module.
func (l *Library) Register(r *registry.Registry) {
	r.Register(&CreateGraph{roots: l.Roots})
	r.Register(&ComputeControllability{roots: l.Roots})
	r.Register(&PlotControllability{roots: l.Roots})
}

// graphParamNames are the parameters that identify a generated graph. Tasks
// downstream of create_graph project their own parameters onto this set so
// the whole chain shares one graph instance.
var graphParamNames = []string{"graph", "nodes", "seed", "degree", "beta"}

func graphScope(p task.Params) task.Params {
	kept := make(map[string]string, len(graphParamNames))
	for _, name := range graphParamNames {
		if v, ok := p.Get(name); ok {
			kept[name] = v
		}
	}
	return task.NewParams(kept)
}
