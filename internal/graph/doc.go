// Package graph derives dependency views from a flat entity list.
//
// Edges run from an entity to each id in its Dependencies (its parents).
// The relation is not guaranteed acyclic: every traversal here guards with
// a visited set and terminates on self-loops and cycles. Dependency ids that
// no longer resolve to an entity are skipped, never reported as errors,
// except by Dangling which exists to list them.
//
// All functions are pure. They take a snapshot slice and never mutate it.
package graph
