// Package executor is the local scheduler: a single coordinating goroutine
// that owns every state transition, dispatching ready task instances to a
// bounded worker pool. It probes the artifact store to skip instances whose
// outputs already exist, propagates failures to transitive dependents
// without stopping unrelated branches, and honors external cancellation by
// letting running tasks finish while dispatching nothing new.
package executor
