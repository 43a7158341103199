// Package ir defines the record types shared by every pipecraft package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records round-trip through the store as JSON; tags follow the
//     original record shape (camelCase fields, snake_case created_date)
//   - Entity payloads are a closed union (Tabular, Document, Opaque,
//     Literal)
//   - Snapshots are deep copies; nothing in an EntityVersion aliases a
//     live Entity
package ir
