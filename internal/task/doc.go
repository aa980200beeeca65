// Package task defines the contract between the scheduling engine and the
// task implementations it orchestrates: a parameter-bound Spec identifying a
// task instance, and the Task interface every implementation satisfies. The
// engine calls Requires, Outputs and Run only; it never inspects task
// internals.
package task
