// Package config loads the optional pipeline configuration file. The file
// is HCL and carries run defaults (worker count, logging, artifact roots,
// history database) plus per-task-kind default parameters; CLI flags
// override anything set here.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// File is the decoded pipeline configuration.
type File struct {
	Workers   int    `hcl:"workers,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogFormat string `hcl:"log_format,optional"`
	DataDir   string `hcl:"data_dir,optional"`
	FigureDir string `hcl:"figure_dir,optional"`
	HistoryDB string `hcl:"history_db,optional"`

	Tasks []TaskDefaults `hcl:"task,block"`
}

// TaskDefaults carries default parameters for one task kind. They are
// overlaid under the parameters given on the command line.
type TaskDefaults struct {
	Kind   string            `hcl:"kind,label"`
	Params map[string]string `hcl:"params,optional"`
}

// Load parses the configuration file at path. A missing path returns an
// empty File so callers need not special-case the optional file.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	var f File
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// DefaultsFor returns the configured default parameters for a task kind,
// or nil when none are set.
func (f *File) DefaultsFor(kind string) map[string]string {
	for _, t := range f.Tasks {
		if t.Kind == kind {
			return t.Params
		}
	}
	return nil
}
