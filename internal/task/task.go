package task

import (
	"context"
	"fmt"

	"github.com/vk/taskgridgo/internal/artifact"
)

// Spec identifies one task instance: a task kind plus its bound parameters.
// Specs with equal kind and value-equal parameters denote the same instance;
// the Key form is the deduplication identity used during graph expansion.
type Spec struct {
	Kind   string
	Params Params
}

// NewSpec binds a kind name to a parameter set.
func NewSpec(kind string, params Params) Spec {
	return Spec{Kind: kind, Params: params}
}

// Key returns the canonical string identity of the spec.
func (s Spec) Key() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Params.Canonical())
}

// String implements fmt.Stringer.
func (s Spec) String() string {
	return s.Key()
}

// Equal reports whether two specs denote the same task instance.
func (s Spec) Equal(other Spec) bool {
	return s.Kind == other.Kind && s.Params.Equal(other.Params)
}

// Inputs carries the resolved outputs of a task's dependencies into Run,
// keyed by the dependency's spec key.
type Inputs map[string][]artifact.Ref

// ForKind returns the outputs of the first dependency of the given kind.
// Convenient for tasks whose dependencies all have distinct kinds.
func (in Inputs) ForKind(kind string) []artifact.Ref {
	for key, refs := range in {
		if specKind(key) == kind {
			return refs
		}
	}
	return nil
}

func specKind(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '(' {
			return key[:i]
		}
	}
	return key
}

// Task is the contract a task implementation must satisfy.
//
// Requires and Outputs must be pure functions of the parameters: no side
// effects, deterministic results. An error from either is a configuration
// error and aborts the whole run before anything executes. Run performs the
// actual work; on success it must have produced every declared output, and
// on failure it must not leave a partial file at a declared location
// (publish through artifact.CreateAtomic).
type Task interface {
	// Kind returns the registered name of the task.
	Kind() string
	// Requires declares the dependency specs for the given parameters.
	Requires(p Params) ([]Spec, error)
	// Outputs declares the artifacts an instance with these parameters
	// must produce.
	Outputs(p Params) ([]artifact.Ref, error)
	// Run executes the task. Dependency outputs arrive resolved in inputs.
	Run(ctx context.Context, p Params, inputs Inputs) error
}
