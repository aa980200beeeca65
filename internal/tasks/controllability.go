package tasks

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/task"
)

// MetricsDoc is the persisted controllability analysis of one network.
type MetricsDoc struct {
	Graph          string  `yaml:"graph"`
	Nodes          int     `yaml:"nodes"`
	Edges          int     `yaml:"edges"`
	MatchingSize   int     `yaml:"matching_size"`
	DriverNodes    int     `yaml:"driver_nodes"`
	DriverFraction float64 `yaml:"driver_fraction"`
}

// ComputeControllability derives the structural controllability of a
// generated network: the minimum number of driver nodes equals the number
// of nodes left unmatched by a maximum matching of the directed edge set
// (with a floor of one). The computation is sequential on purpose; task-level
// parallelism belongs to the scheduler, not to the numeric code.
type ComputeControllability struct {
	roots artifact.Roots
}

func (t *ComputeControllability) Kind() string { return KindControllability }

func (t *ComputeControllability) Requires(p task.Params) ([]task.Spec, error) {
	return []task.Spec{task.NewSpec(KindCreateGraph, graphScope(p))}, nil
}

func (t *ComputeControllability) Outputs(p task.Params) ([]artifact.Ref, error) {
	cfg, err := graphConfig(p)
	if err != nil {
		return nil, err
	}
	return []artifact.Ref{t.roots.DataRef("controllability-" + cfg.fileStem() + ".yaml")}, nil
}

func (t *ComputeControllability) Run(ctx context.Context, p task.Params, inputs task.Inputs) error {
	graphRefs := inputs.ForKind(KindCreateGraph)
	if len(graphRefs) == 0 {
		return fmt.Errorf("missing graph input")
	}
	doc, err := loadGraphDoc(graphRefs[0])
	if err != nil {
		return err
	}

	matching := maximumMatching(doc.Nodes, doc.Edges)
	drivers := doc.Nodes - matching
	if drivers < 1 {
		drivers = 1
	}

	metrics := &MetricsDoc{
		Graph:          doc.Type,
		Nodes:          doc.Nodes,
		Edges:          len(doc.Edges),
		MatchingSize:   matching,
		DriverNodes:    drivers,
		DriverFraction: float64(drivers) / float64(doc.Nodes),
	}
	ctxlog.FromContext(ctx).Debug("Controllability computed.",
		"graph", doc.Type, "matching", matching, "drivers", drivers)

	refs, _ := t.Outputs(p)
	return artifact.CreateAtomic(refs[0], func(w io.Writer) error {
		return yaml.NewEncoder(w).Encode(metrics)
	})
}

// maximumMatching computes the size of a maximum bipartite matching between
// edge tails and edge heads (Kuhn's augmenting-path algorithm). Nodes are
// the vertices 0..n-1 on both sides.
func maximumMatching(n int, edges [][2]int) int {
	adj := make([][]int, n)
	for _, e := range edges {
		u, v := e[0], e[1]
		if u < 0 || u >= n || v < 0 || v >= n {
			continue
		}
		adj[u] = append(adj[u], v)
	}

	matchIn := make([]int, n)
	for i := range matchIn {
		matchIn[i] = -1
	}

	var augment func(u int, visited []bool) bool
	augment = func(u int, visited []bool) bool {
		for _, v := range adj[u] {
			if visited[v] {
				continue
			}
			visited[v] = true
			if matchIn[v] == -1 || augment(matchIn[v], visited) {
				matchIn[v] = u
				return true
			}
		}
		return false
	}

	matching := 0
	for u := 0; u < n; u++ {
		visited := make([]bool, n)
		if augment(u, visited) {
			matching++
		}
	}
	return matching
}

// loadMetricsDoc reads a metrics artifact produced by ComputeControllability.
func loadMetricsDoc(ref artifact.Ref) (*MetricsDoc, error) {
	f, err := openRef(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc MetricsDoc
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode metrics artifact %s: %w", ref, err)
	}
	return &doc, nil
}

func openRef(ref artifact.Ref) (*os.File, error) {
	f, err := os.Open(ref.Path())
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}
