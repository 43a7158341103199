// Package engine implements the pipecraft dependency engine.
//
// The engine owns every mutation of the workspace: entity and folder
// commands, the staleness propagator (Recompute), the version ledger
// (Commit, Revert, History) and the branch registry (CreateBranch, Merge).
// All state lives in the record store; the engine holds no cache between
// calls.
//
// SESSIONS:
//
// The current branch is not global. Ledger and branch calls take a
// *Session, so independent sessions can work on different branches against
// the same store. A nil session means the default branch.
//
// RECOMPUTE:
//
//  1. Resolve the downstream closure of the seed (graph.Closure)
//  2. Persist status=stale for each member, one write at a time
//  3. Log the closure size
//  4. Wait the compute delay
//  5. Evaluate each member in closure order; persist ok or error and log it
//
// An upstream failure does not stop downstream members from being
// evaluated. A started recompute ignores cancellation of its context.
//
// ERRORS:
//
// Expected outcomes never surface as errors: evaluation failures become
// status=error plus a log line, reverting a version without a snapshot is a
// no-op, and merging from a branch with no versions logs a warning. Only
// store faults and missing records are returned.
//
// NOTIFICATIONS:
//
// Every mutation publishes an Event to subscribers (Engine.Subscribe).
// Publishing never blocks; each subscription buffers without bound.
package engine
