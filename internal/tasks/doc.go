// Package tasks is the built-in task library: a three-stage network
// analysis pipeline (graph construction, structural controllability,
// figure rendering). The scheduling engine knows nothing about these tasks
// beyond the task.Task contract; they are the collaborator side of the
// system and double as the end-to-end exercise of the engine.
package tasks
