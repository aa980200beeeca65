package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/testutil"
)

func TestState_Strings(t *testing.T) {
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "DONE", Done.String())
	assert.Equal(t, "SKIPPED_ALREADY_DONE", SkippedAlreadyDone.String())
	assert.Equal(t, "SKIPPED_UPSTREAM_FAILED", SkippedUpstreamFailed.String())
	assert.Equal(t, "SKIPPED_CANCELLED", SkippedCancelled.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}

func TestState_TerminalAndSatisfied(t *testing.T) {
	for _, st := range []State{Pending, Ready, Running} {
		assert.False(t, st.Terminal(), st.String())
	}
	for _, st := range []State{Done, Failed, SkippedAlreadyDone, SkippedUpstreamFailed, SkippedCancelled} {
		assert.True(t, st.Terminal(), st.String())
	}

	assert.True(t, Done.Satisfied())
	assert.True(t, SkippedAlreadyDone.Satisfied())
	assert.False(t, Failed.Satisfied())
	assert.False(t, SkippedCancelled.Satisfied())
}

func TestReport_OKAndExitCode(t *testing.T) {
	t.Run("all satisfied", func(t *testing.T) {
		r := New("root()")
		r.Add(Record{Key: "a()", State: Done})
		r.Add(Record{Key: "b()", State: SkippedAlreadyDone})
		assert.True(t, r.OK())
		assert.Equal(t, 0, r.ExitCode())
	})

	t.Run("one failure", func(t *testing.T) {
		r := New("root()")
		r.Add(Record{Key: "a()", State: Done})
		r.Add(Record{Key: "b()", State: Failed})
		assert.False(t, r.OK())
		assert.Equal(t, 1, r.ExitCode())
	})

	t.Run("skipped upstream counts as failure", func(t *testing.T) {
		r := New("root()")
		r.Add(Record{Key: "a()", State: SkippedUpstreamFailed})
		assert.False(t, r.OK())
	})

	t.Run("empty report is not a success", func(t *testing.T) {
		r := New("root()")
		assert.False(t, r.OK())
		assert.Equal(t, 1, r.ExitCode())
	})
}

func TestReport_AddReplacesByKey(t *testing.T) {
	r := New("root()")
	r.Add(Record{Key: "a()", State: Running})
	r.Add(Record{Key: "a()", State: Done})

	require.Len(t, r.Records(), 1)
	rec, ok := r.Lookup("a()")
	require.True(t, ok)
	assert.Equal(t, Done, rec.State)
}

func TestReport_Counts(t *testing.T) {
	r := New("root()")
	r.Add(Record{Key: "a()", State: Done})
	r.Add(Record{Key: "b()", State: Done})
	r.Add(Record{Key: "c()", State: Failed})

	counts := r.Counts()
	assert.Equal(t, 2, counts[Done])
	assert.Equal(t, 1, counts[Failed])
	assert.Equal(t, 0, counts[SkippedCancelled])
}

func TestRecord_Duration(t *testing.T) {
	start := time.Now()
	rec := Record{Start: start, End: start.Add(250 * time.Millisecond)}
	assert.Equal(t, 250*time.Millisecond, rec.Duration())

	assert.Zero(t, Record{}.Duration(), "a never-run instance has no duration")
}

func TestReport_SummaryListsEveryInstanceAndVerdict(t *testing.T) {
	r := New("plot()")
	r.Add(Record{Key: "create_graph()", Kind: "create_graph", State: Done})
	r.Add(Record{Key: "compute()", Kind: "compute", State: Failed, Err: errors.New("matrix is singular")})
	r.Add(Record{Key: "plot()", Kind: "plot", State: SkippedUpstreamFailed})

	var buf testutil.SafeBuffer
	r.Summary(&buf)
	out := buf.String()

	assert.Contains(t, out, r.ID)
	assert.Contains(t, out, "create_graph()")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "matrix is singular", "failure causes must appear in the summary")
	assert.Contains(t, out, "SKIPPED_UPSTREAM_FAILED")
	assert.Contains(t, out, "FAILURE")
	assert.NotContains(t, out, "SUCCESS")
}

func TestReport_SummarySuccessVerdict(t *testing.T) {
	r := New("root()")
	r.Add(Record{Key: "root()", Kind: "root", State: Done})

	var buf testutil.SafeBuffer
	r.Summary(&buf)
	assert.Contains(t, buf.String(), "SUCCESS")
}
