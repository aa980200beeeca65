// Package dag expands a root task spec into the full dependency graph of
// task instances. Expansion deduplicates instances by spec identity, detects
// cycles before anything executes, and computes the per-node depth used for
// deterministic scheduling order.
package dag
