package app

import (
	"errors"
	"fmt"

	"github.com/vk/taskgridgo/internal/executor"
)

// SchedulerLocal is the only scheduling mode this binary implements: an
// in-process, single-run executor. The flag exists so invocations written
// against an external scheduling service fail loudly rather than silently
// running locally.
const SchedulerLocal = "local"

// Config holds everything one pipeline invocation needs.
type Config struct {
	// RootKind names the requested root task.
	RootKind string
	// Params are the root task's parameters as given on the command line,
	// already merged with config-file defaults.
	Params map[string]string

	Scheduler string
	Workers   int

	LogFormat string
	LogLevel  string

	DataDir   string
	FigureDir string
	// HistoryDB is the run-history SQLite path; empty disables history.
	HistoryDB string
}

// NewConfig validates and normalizes a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootKind == "" {
		return nil, errors.New("a root task kind is required")
	}
	if cfg.Scheduler == "" {
		cfg.Scheduler = SchedulerLocal
	}
	if cfg.Scheduler != SchedulerLocal {
		return nil, fmt.Errorf("scheduler %q is not supported, only %q is", cfg.Scheduler, SchedulerLocal)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = executor.DefaultWorkers
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn' or 'error'", cfg.LogLevel)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "out/data"
	}
	if cfg.FigureDir == "" {
		cfg.FigureDir = "out/figures"
	}
	return &cfg, nil
}
