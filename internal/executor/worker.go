package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/dag"
	"github.com/vk/taskgridgo/internal/task"
)

// worker is the processing loop of one pool slot. It runs instances handed
// over by the coordinator and reports each outcome exactly once.
func (e *Executor) worker(ctx context.Context, taskCh <-chan *dag.Node, resultCh chan<- result, id int) {
	logger := ctxlog.FromContext(ctx).With("workerID", id)
	logger.Debug("Worker started.")

	for n := range taskCh {
		taskLogger := logger.With("task", n.Key())
		taskLogger.Info("▶️ Starting task instance")

		start := time.Now()
		err := e.runTask(ctx, n)
		end := time.Now()

		if err != nil {
			taskLogger.Error("Task instance failed.", "error", err)
		} else {
			taskLogger.Info("✅ Finished task instance", "duration", end.Sub(start).Round(time.Millisecond))
		}
		resultCh <- result{node: n, err: err, start: start, end: end}
	}
	logger.Debug("Worker finished.")
}

// runTask invokes the task implementation with its resolved dependency
// outputs and verifies the declared outputs afterwards. A panicking task is
// converted into a task-level failure. The task runs on a context detached
// from the run's cancellation: a cancelled run lets in-flight tasks finish
// naturally rather than interrupting them mid-write.
func (e *Executor) runTask(ctx context.Context, n *dag.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	inputs := make(task.Inputs, len(n.Deps))
	for _, dep := range n.Deps {
		inputs[dep.Key()] = dep.Outputs
	}

	runCtx := context.WithoutCancel(ctx)
	if err := n.Task.Run(runCtx, n.Spec.Params, inputs); err != nil {
		return err
	}

	// Nothing declared means nothing to verify. The probe side still treats
	// an empty output list as never complete, so such tasks always run.
	if len(n.Outputs) == 0 {
		return nil
	}
	complete, err := e.store.Complete(n.Outputs)
	if err != nil {
		return fmt.Errorf("verify outputs: %w", err)
	}
	if !complete {
		return fmt.Errorf("task reported success but did not produce all declared outputs")
	}
	return nil
}
