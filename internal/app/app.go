// Package app wires one pipeline invocation together: logger, artifact
// roots, task registry, graph construction, execution and reporting. The
// App is the explicit per-run context object; there is no ambient
// process-wide pipeline state.
package app

import (
	"io"
	"log/slog"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/tasks"
)

// App encapsulates the dependencies and lifecycle of a single pipeline run.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	roots    artifact.Roots
	cfg      *Config
}

// New constructs an App with its own isolated logger and registry. When no
// modules are given, the built-in task library is registered.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	roots := artifact.Roots{Data: cfg.DataDir, Figures: cfg.FigureDir}

	reg := registry.New()
	if len(modules) == 0 {
		modules = []registry.Module{tasks.New(roots)}
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Task modules registered.", "kinds", reg.Kinds())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		roots:    roots,
		cfg:      cfg,
	}
}

// Registry returns the application's task registry. Primarily for testing
// and for the kind-listing command.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
