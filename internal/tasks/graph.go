package tasks

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/task"
)

// GraphDoc is the persisted form of a generated network.
type GraphDoc struct {
	Type  string   `yaml:"type"`
	Nodes int      `yaml:"nodes"`
	Seed  int64    `yaml:"seed"`
	Edges [][2]int `yaml:"edges"`
}

// CreateGraph generates a directed network from its parameters and
// publishes it as a YAML artifact in the data root.
//
// Parameters: graph (line|ring|grid|tree|smallworld), nodes, seed,
// degree and beta (smallworld only).
type CreateGraph struct {
	roots artifact.Roots
}

func (t *CreateGraph) Kind() string { return KindCreateGraph }

func (t *CreateGraph) Requires(p task.Params) ([]task.Spec, error) {
	return nil, nil
}

func (t *CreateGraph) Outputs(p task.Params) ([]artifact.Ref, error) {
	cfg, err := graphConfig(p)
	if err != nil {
		return nil, err
	}
	return []artifact.Ref{t.roots.DataRef(cfg.fileStem() + ".yaml")}, nil
}

func (t *CreateGraph) Run(ctx context.Context, p task.Params, _ task.Inputs) error {
	cfg, err := graphConfig(p)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Generating network.", "type", cfg.Type, "nodes", cfg.Nodes, "seed", cfg.Seed)

	doc, err := generate(cfg)
	if err != nil {
		return err
	}

	refs, _ := t.Outputs(p)
	return artifact.CreateAtomic(refs[0], func(w io.Writer) error {
		return yaml.NewEncoder(w).Encode(doc)
	})
}

// graphCfg is the validated parameter set of one generated graph.
type graphCfg struct {
	Type   string
	Nodes  int
	Seed   int64
	Degree int
	Beta   float64
}

func (c graphCfg) fileStem() string {
	return fmt.Sprintf("graph-%s-n%d-s%d", c.Type, c.Nodes, c.Seed)
}

func graphConfig(p task.Params) (graphCfg, error) {
	cfg := graphCfg{Type: p.String("graph", "line")}

	switch cfg.Type {
	case "line", "ring", "grid", "tree", "smallworld":
	default:
		return cfg, fmt.Errorf("unknown graph type %q", cfg.Type)
	}

	nodes, err := p.Int("nodes", 12)
	if err != nil {
		return cfg, err
	}
	if nodes < 2 {
		return cfg, fmt.Errorf("nodes must be at least 2, got %d", nodes)
	}
	cfg.Nodes = nodes

	seed, err := p.Int("seed", 42)
	if err != nil {
		return cfg, err
	}
	cfg.Seed = int64(seed)

	degree, err := p.Int("degree", 4)
	if err != nil {
		return cfg, err
	}
	if degree < 2 || degree%2 != 0 {
		return cfg, fmt.Errorf("degree must be a positive even number, got %d", degree)
	}
	cfg.Degree = degree

	beta, err := p.Float("beta", 0.1)
	if err != nil {
		return cfg, err
	}
	if beta < 0 || beta > 1 {
		return cfg, fmt.Errorf("beta must be in [0, 1], got %v", beta)
	}
	cfg.Beta = beta

	return cfg, nil
}

// generate builds the directed edge list for the configured topology.
// Generation is fully deterministic for a given parameter set.
func generate(cfg graphCfg) (*GraphDoc, error) {
	doc := &GraphDoc{Type: cfg.Type, Nodes: cfg.Nodes, Seed: cfg.Seed}
	n := cfg.Nodes

	addEdge := func(u, v int) {
		doc.Edges = append(doc.Edges, [2]int{u, v})
	}

	switch cfg.Type {
	case "line":
		for i := 0; i < n-1; i++ {
			addEdge(i, i+1)
		}
	case "ring":
		for i := 0; i < n; i++ {
			addEdge(i, (i+1)%n)
		}
	case "grid":
		width := int(math.Ceil(math.Sqrt(float64(n))))
		for i := 0; i < n; i++ {
			if (i+1)%width != 0 && i+1 < n {
				addEdge(i, i+1)
			}
			if i+width < n {
				addEdge(i, i+width)
			}
		}
	case "tree":
		for i := 0; 2*i+1 < n; i++ {
			addEdge(i, 2*i+1)
			if 2*i+2 < n {
				addEdge(i, 2*i+2)
			}
		}
	case "smallworld":
		// Watts-Strogatz on a directed ring lattice: each node links to its
		// degree/2 clockwise neighbors, then each edge is rewired to a
		// uniform random target with probability beta.
		rng := rand.New(rand.NewSource(cfg.Seed))
		for i := 0; i < n; i++ {
			for j := 1; j <= cfg.Degree/2; j++ {
				target := (i + j) % n
				if rng.Float64() < cfg.Beta {
					for {
						candidate := rng.Intn(n)
						if candidate != i {
							target = candidate
							break
						}
					}
				}
				addEdge(i, target)
			}
		}
	default:
		return nil, fmt.Errorf("unknown graph type %q", cfg.Type)
	}
	return doc, nil
}

// loadGraphDoc reads a graph artifact produced by CreateGraph.
func loadGraphDoc(ref artifact.Ref) (*GraphDoc, error) {
	f, err := openRef(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc GraphDoc
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph artifact %s: %w", ref, err)
	}
	return &doc, nil
}
