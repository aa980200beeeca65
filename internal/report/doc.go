// Package report defines the per-instance execution states, collects one
// record per task instance over a pipeline run, and renders the final
// human-readable summary and process exit code.
package report
