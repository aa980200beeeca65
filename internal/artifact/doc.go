// Package artifact defines persisted task outputs and the read-only probe
// that decides whether a task instance is already satisfied. It also provides
// the atomic publish helper task implementations use so that a partially
// written file is never observable at a declared output location.
package artifact
