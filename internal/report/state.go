package report

// State is the execution state of a single task instance. Transitions are
// owned exclusively by the executor's coordinator and form a strict forward
// progression: Pending → Ready → Running → Done or Failed, with the three
// Skipped states entered directly from Pending.
type State int

const (
	// Pending means the instance is waiting on its dependencies.
	Pending State = iota
	// Ready means all dependencies are satisfied and the instance is
	// queued for a worker slot.
	Ready
	// Running means a worker is currently executing the instance.
	Running
	// Done means the instance executed and produced its outputs.
	Done
	// Failed means the instance executed and failed.
	Failed
	// SkippedAlreadyDone means the artifact probe found every declared
	// output present, so Run was never invoked.
	SkippedAlreadyDone
	// SkippedUpstreamFailed means a transitive dependency failed, so the
	// instance was never eligible to run.
	SkippedUpstreamFailed
	// SkippedCancelled means the run was cancelled before the instance
	// was dispatched.
	SkippedCancelled
)

var stateNames = map[State]string{
	Pending:               "PENDING",
	Ready:                 "READY",
	Running:               "RUNNING",
	Done:                  "DONE",
	Failed:                "FAILED",
	SkippedAlreadyDone:    "SKIPPED_ALREADY_DONE",
	SkippedUpstreamFailed: "SKIPPED_UPSTREAM_FAILED",
	SkippedCancelled:      "SKIPPED_CANCELLED",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	switch s {
	case Done, Failed, SkippedAlreadyDone, SkippedUpstreamFailed, SkippedCancelled:
		return true
	}
	return false
}

// Satisfied reports whether a dependency in this state unblocks its
// dependents.
func (s State) Satisfied() bool {
	return s == Done || s == SkippedAlreadyDone
}
