// Package cli defines the command-line surface: the run, tasks, history and
// version subcommands, flag-to-config merging, and the ExitError type that
// carries the process exit code out of command execution.
package cli
