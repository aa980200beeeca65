package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Record is the final outcome of one task instance.
type Record struct {
	Key   string
	Kind  string
	State State
	Start time.Time
	End   time.Time
	Err   error
}

// Duration returns the wall-clock execution time, zero for instances that
// never ran.
func (r Record) Duration() time.Duration {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Report accumulates one record per task instance for a single pipeline
// invocation. It is populated by the executor's coordinator and read after
// the run finishes; it performs no locking of its own.
type Report struct {
	// ID uniquely identifies this invocation, for logs and run history.
	ID string
	// Root is the spec key of the requested root task.
	Root string
	// Started and Finished bound the whole run.
	Started  time.Time
	Finished time.Time

	records []Record
	byKey   map[string]int
}

// New creates an empty report for the given root spec key.
func New(root string) *Report {
	return &Report{
		ID:      uuid.NewString(),
		Root:    root,
		Started: time.Now(),
		byKey:   make(map[string]int),
	}
}

// Add appends or replaces the record for its spec key.
func (r *Report) Add(rec Record) {
	if i, ok := r.byKey[rec.Key]; ok {
		r.records[i] = rec
		return
	}
	r.byKey[rec.Key] = len(r.records)
	r.records = append(r.records, rec)
}

// Records returns the accumulated records in insertion order.
func (r *Report) Records() []Record {
	return r.records
}

// Lookup returns the record for a spec key.
func (r *Report) Lookup(key string) (Record, bool) {
	if i, ok := r.byKey[key]; ok {
		return r.records[i], true
	}
	return Record{}, false
}

// Counts tallies records per state.
func (r *Report) Counts() map[State]int {
	counts := make(map[State]int)
	for _, rec := range r.records {
		counts[rec.State]++
	}
	return counts
}

// OK reports overall success: every instance ended Done or skipped because
// its outputs already existed.
func (r *Report) OK() bool {
	if len(r.records) == 0 {
		return false
	}
	for _, rec := range r.records {
		if !rec.State.Satisfied() {
			return false
		}
	}
	return true
}

// ExitCode maps the overall status to the process exit code.
func (r *Report) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

// Summary writes the human-readable per-task outcome table and the overall
// verdict. Failed tasks and their captured errors are always enumerated.
func (r *Report) Summary(w io.Writer) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(w, "\nRun %s (root %s)\n", r.ID, r.Root)
	for _, rec := range r.records {
		var state string
		switch rec.State {
		case Done:
			state = green(rec.State.String())
		case Failed:
			state = red(rec.State.String())
		case SkippedAlreadyDone:
			state = cyan(rec.State.String())
		default:
			state = yellow(rec.State.String())
		}
		if d := rec.Duration(); d > 0 {
			fmt.Fprintf(w, "  %-24s %s (%s)\n", state, rec.Key, d.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "  %-24s %s\n", state, rec.Key)
		}
		if rec.Err != nil {
			fmt.Fprintf(w, "      %s\n", red(rec.Err.Error()))
		}
	}

	counts := r.Counts()
	fmt.Fprintf(w, "  %d done, %d already done, %d failed, %d skipped upstream, %d cancelled\n",
		counts[Done], counts[SkippedAlreadyDone], counts[Failed],
		counts[SkippedUpstreamFailed], counts[SkippedCancelled])

	if r.OK() {
		fmt.Fprintf(w, "Result: %s\n", green("SUCCESS"))
	} else {
		fmt.Fprintf(w, "Result: %s\n", red("FAILURE"))
	}
}
