// Package harness runs pipeline scenarios against a real engine and checks
// the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: recompute_failure
//	description: "A failed parent does not stop its children"
//	fail: [clean]
//	setup:
//	  folders:
//	    - { key: raw, name: Raw Data }
//	  entities:
//	    - { key: orders, name: Orders, folder: raw }
//	    - { key: clean, name: Clean, depends_on: [orders] }
//	flow:
//	  - op: recompute
//	    entity: orders
//	    expect: { failed: 1 }
//	assertions:
//	  - type: entity_state
//	    entity: clean
//	    expect: { status: error }
//	  - type: log_contains
//	    level: error
//	    message: "Entity 'Clean' computation failed"
//
// Setup may instead name a CUE manifest with manifest: path, resolved
// relative to the scenario file. Either way setup goes through
// engine.ImportManifest, so entities get mock data and an initial version.
//
// # Flow Operations
//
//   - recompute, commit, update, move, delete: act on entity
//   - delete_folder: acts on folder
//   - branch, switch: create or switch to branch
//   - revert: reverts entity to version on the session branch
//   - merge: merges entity from branch into target
//
// A step's expect clause may name the engine error code the step must fail
// with, the number of failed recompute members, or the version number a
// commit, revert or merge must produce.
//
// # Assertion Types
//
//   - log_contains: a log line with the message (and level, if given) exists
//   - log_order: messages appear in the given order
//   - log_count: a message appears exactly count times
//   - entity_state: the entity's fields match expect (subset match)
//   - versions: the entity has count versions on branch
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, sequential ids, a deterministic
// clock and no compute delay, so the same scenario always yields the same
// trace. The trace is the event log in append order; RunWithGolden compares
// it against testdata/golden/<name>.golden.
package harness
