// Package store provides SQLite-backed record storage for pipecraft.
//
// Every collection (entities, folders, versions, branches, logs, agents)
// lives in a single records table keyed by (collection, id). Bodies are
// stored as JSON and queried with json_extract, so list sorting and
// equality filters work on any top-level field.
//
// # Guarantees
//
//   - Ids are generated on create; callers never pick them.
//   - created_date is set on create in a fixed-width UTC layout, so
//     lexical order equals chronological order.
//   - id and created_date are immutable; Update rejects patches to them.
//   - Ties in any sort order fall back to insertion order (seq).
//   - Delete is idempotent.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Single connection: SQLite allows one writer
package store
