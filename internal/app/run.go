package app

import (
	"context"
	"fmt"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/dag"
	"github.com/vk/taskgridgo/internal/executor"
	"github.com/vk/taskgridgo/internal/history"
	"github.com/vk/taskgridgo/internal/report"
	"github.com/vk/taskgridgo/internal/task"
)

// Run executes the configured pipeline once and returns its report. A nil
// report with an error means the run was aborted by a configuration error
// before any task executed.
func (a *App) Run(ctx context.Context) (*report.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.", "root_kind", a.cfg.RootKind)

	if err := a.roots.Ensure(); err != nil {
		return nil, err
	}

	if _, err := a.registry.Lookup(a.cfg.RootKind); err != nil {
		return nil, err
	}
	rootSpec := task.NewSpec(a.cfg.RootKind, task.NewParams(a.cfg.Params))

	graph, err := dag.Build(ctx, a.registry, rootSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", graph.Len())

	a.logger.Info("🚀 Starting pipeline execution...", "root", rootSpec.Key(), "workers", a.cfg.Workers)
	exec := executor.New(graph, artifact.NewStore(), a.cfg.Workers)
	rep := exec.Run(ctx)
	a.logger.Info("🏁 Pipeline execution finished.", "ok", rep.OK())

	rep.Summary(a.outW)
	a.persistHistory(ctx, rep)

	a.logger.Debug("App.Run finished.")
	return rep, nil
}

// persistHistory records the report in the run-history database. History is
// best-effort: a storage failure is logged, never turned into a run failure.
func (a *App) persistHistory(ctx context.Context, rep *report.Report) {
	if a.cfg.HistoryDB == "" {
		return
	}
	store, err := history.Open(a.cfg.HistoryDB)
	if err != nil {
		a.logger.Warn("Could not open run history database.", "path", a.cfg.HistoryDB, "error", err)
		return
	}
	defer store.Close()

	if err := store.RecordRun(ctx, rep); err != nil {
		a.logger.Warn("Could not record run history.", "error", err)
		return
	}
	a.logger.Debug("Run recorded in history.", "run_id", rep.ID)
}
