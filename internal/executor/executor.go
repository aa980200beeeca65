package executor

import (
	"sort"
	"sync"
	"time"

	"context"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/dag"
	"github.com/vk/taskgridgo/internal/report"
)

// DefaultWorkers is the conservative default worker-pool size. Task-internal
// parallelism is constrained separately (numeric libraries are pinned to one
// thread by the environment); this bounds task-to-task concurrency only.
const DefaultWorkers = 4

// Executor runs one dependency graph to completion.
type Executor struct {
	graph   *dag.Graph
	store   *artifact.Store
	workers int
}

// New creates an executor for the given graph with a bounded worker pool.
// A non-positive worker count falls back to DefaultWorkers.
func New(graph *dag.Graph, store *artifact.Store, workers int) *Executor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Executor{graph: graph, store: store, workers: workers}
}

// result is what a worker sends back to the coordinator for one instance.
type result struct {
	node  *dag.Node
	err   error
	start time.Time
	end   time.Time
}

// meta is the coordinator's private bookkeeping per instance.
type meta struct {
	start time.Time
	end   time.Time
	err   error
}

// Run executes the graph and returns the per-instance report. The
// coordinator goroutine is the sole owner of all execution state; workers
// only run tasks and report results. Cancelling ctx stops new dispatches,
// marks undispatched work SKIPPED_CANCELLED and waits for running tasks to
// finish naturally.
func (e *Executor) Run(ctx context.Context) *report.Report {
	logger := ctxlog.FromContext(ctx)
	rep := report.New(e.graph.Root.Key())

	states := make(map[*dag.Node]report.State, e.graph.Len())
	metas := make(map[*dag.Node]*meta, e.graph.Len())
	for _, n := range e.graph.Nodes {
		states[n] = report.Pending
		metas[n] = &meta{}
	}

	// Deterministic scheduling order: depth ascending (leaves first), then
	// expansion order. Precomputed once; every frontier scan follows it.
	sorted := make([]*dag.Node, len(e.graph.Nodes))
	copy(sorted, e.graph.Nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Depth != sorted[j].Depth {
			return sorted[i].Depth < sorted[j].Depth
		}
		return sorted[i].Order < sorted[j].Order
	})

	taskCh := make(chan *dag.Node)
	resultCh := make(chan result, e.workers)

	var wg sync.WaitGroup
	logger.Debug("Starting worker pool.", "workers", e.workers)
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.worker(ctx, taskCh, resultCh, id)
		}(i)
	}

	running := 0
	cancelled := false
	ctxDone := ctx.Done()

	for {
		// Observe cancellation before dispatching: a context cancelled
		// between iterations (or before the run started) must not release
		// another frontier wave.
		if !cancelled && ctx.Err() != nil {
			ctxDone = nil
			cancelled = true
			logger.Warn("Run cancelled; no new tasks will start.", "running", running)
		}

		e.advance(ctx, sorted, states, metas, cancelled)

		// Dispatch ready instances, bounded by free worker slots. An
		// instance is sent at most once: the Ready→Running transition
		// happens here, before handing it to the pool.
		if !cancelled {
			for _, n := range sorted {
				if running >= e.workers {
					break
				}
				if states[n] != report.Ready {
					continue
				}
				states[n] = report.Running
				metas[n].start = time.Now()
				logger.Debug("Dispatching task instance.", "task", n.Key(), "depth", n.Depth)
				taskCh <- n
				running++
			}
		}

		if !remaining(states) {
			break
		}

		select {
		case res := <-resultCh:
			running--
			m := metas[res.node]
			m.start, m.end, m.err = res.start, res.end, res.err
			if res.err != nil {
				states[res.node] = report.Failed
			} else {
				states[res.node] = report.Done
			}
		case <-ctxDone:
			ctxDone = nil
			cancelled = true
			logger.Warn("Run cancelled; no new tasks will start.", "running", running)
		}
	}

	close(taskCh)
	wg.Wait()

	for _, n := range e.graph.Nodes {
		m := metas[n]
		rep.Add(report.Record{
			Key:   n.Key(),
			Kind:  n.Spec.Kind,
			State: states[n],
			Start: m.start,
			End:   m.end,
			Err:   m.err,
		})
	}
	rep.Finished = time.Now()
	return rep
}

// advance drives all state transitions that need no worker: skipping
// already-complete instances, propagating upstream failures and
// cancellation, and promoting unblocked instances to Ready. It loops to a
// fixpoint because each skip can unblock further dependents.
func (e *Executor) advance(ctx context.Context, sorted []*dag.Node, states map[*dag.Node]report.State, metas map[*dag.Node]*meta, cancelled bool) {
	logger := ctxlog.FromContext(ctx)

	for changed := true; changed; {
		changed = false
		for _, n := range sorted {
			switch states[n] {
			case report.Pending:
			case report.Ready:
				if cancelled {
					states[n] = report.SkippedCancelled
					changed = true
				}
				continue
			default:
				continue
			}

			if cancelled {
				states[n] = report.SkippedCancelled
				changed = true
				continue
			}

			allTerminal := true
			allSatisfied := true
			upstreamFailed := false
			upstreamCancelled := false
			for _, dep := range n.Deps {
				st := states[dep]
				if !st.Terminal() {
					allTerminal = false
					allSatisfied = false
					continue
				}
				if st.Satisfied() {
					continue
				}
				allSatisfied = false
				switch st {
				case report.Failed, report.SkippedUpstreamFailed:
					upstreamFailed = true
				case report.SkippedCancelled:
					upstreamCancelled = true
				}
			}

			switch {
			case upstreamFailed && allTerminal:
				logger.Debug("Skipping task instance, upstream failure.", "task", n.Key())
				states[n] = report.SkippedUpstreamFailed
				changed = true
			case upstreamCancelled && allTerminal:
				states[n] = report.SkippedCancelled
				changed = true
			case allSatisfied:
				complete, err := e.store.Complete(n.Outputs)
				switch {
				case err != nil:
					// Escalated probe error (e.g. permission denied)
					// counts as a task-level failure.
					logger.Error("Artifact probe failed.", "task", n.Key(), "error", err)
					states[n] = report.Failed
					metas[n].err = err
					changed = true
				case complete:
					logger.Info("Outputs already present, skipping.", "task", n.Key())
					states[n] = report.SkippedAlreadyDone
					changed = true
				default:
					states[n] = report.Ready
					changed = true
				}
			}
		}
	}
}

// remaining reports whether any instance still has work ahead of it.
func remaining(states map[*dag.Node]report.State) bool {
	for _, st := range states {
		if !st.Terminal() {
			return true
		}
	}
	return false
}
