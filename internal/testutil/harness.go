// Package testutil holds the shared helpers for scheduler and pipeline
// tests: a thread-safe log buffer, a scriptable task implementation and an
// event recorder for asserting execution order.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/vk/taskgridgo/internal/artifact"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// FakeTask is a scriptable task implementation. Dependency specs, declared
// outputs and declaration-time errors are all plain fields; Run either
// delegates to RunFn or, when RunFn is nil, publishes every declared output
// with placeholder content.
type FakeTask struct {
	TaskKind    string
	DepSpecs    []task.Spec
	OutRefs     []artifact.Ref
	RequiresErr error
	OutputsErr  error
	RunFn       func(ctx context.Context, p task.Params, inputs task.Inputs) error

	mu   sync.Mutex
	runs int
}

// Kind implements task.Task.
func (f *FakeTask) Kind() string { return f.TaskKind }

// Requires implements task.Task.
func (f *FakeTask) Requires(task.Params) ([]task.Spec, error) {
	if f.RequiresErr != nil {
		return nil, f.RequiresErr
	}
	return f.DepSpecs, nil
}

// Outputs implements task.Task.
func (f *FakeTask) Outputs(task.Params) ([]artifact.Ref, error) {
	if f.OutputsErr != nil {
		return nil, f.OutputsErr
	}
	return f.OutRefs, nil
}

// Run implements task.Task.
func (f *FakeTask) Run(ctx context.Context, p task.Params, inputs task.Inputs) error {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()

	if f.RunFn != nil {
		return f.RunFn(ctx, p, inputs)
	}
	for _, ref := range f.OutRefs {
		err := artifact.CreateAtomic(ref, func(w io.Writer) error {
			_, werr := w.Write([]byte("ok\n"))
			return werr
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Runs returns how many times Run was invoked.
func (f *FakeTask) Runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

// Module registers a fixed set of tasks, satisfying registry.Module.
type Module struct {
	Tasks []task.Task
}

// Register implements registry.Module.
func (m Module) Register(r *registry.Registry) {
	for _, t := range m.Tasks {
		r.Register(t)
	}
}

// NewRegistry builds a registry preloaded with the given tasks.
func NewRegistry(tasks ...task.Task) *registry.Registry {
	r := registry.New()
	Module{Tasks: tasks}.Register(r)
	return r
}

// Recorder collects ordered events from concurrently running tasks.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Record appends one event.
func (r *Recorder) Record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Index returns the position of the first matching event, or -1.
func (r *Recorder) Index(event string) int {
	for i, e := range r.Events() {
		if e == event {
			return i
		}
	}
	return -1
}
