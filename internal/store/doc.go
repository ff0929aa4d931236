// Package store provides SQLite-backed durable storage for diagram nodes.
//
// The store owns a single table, nodes, and exposes three operations:
//   - ListNodes: snapshot of all nodes of a supported type
//   - UpsertNodes: validated, transactional batch insert-or-replace
//   - DeleteNodes: normalized, deduplicated batch delete
//
// # Ordering
//
// Reads are ordered by the write stamp, then by id:
//
//	ORDER BY updated_at ASC, id COLLATE BINARY ASC
//
// updated_at is assigned by the store's Clock on every write. Callers never
// supply it.
//
// # Schema
//
// Open runs InitializeSchema before returning, so a *Store never serves an
// unmigrated table. Migration is additive only: missing columns are appended
// with ALTER TABLE ... ADD COLUMN, nothing is dropped or renamed.
//
// # Database Configuration
//
//   - WAL mode for file databases
//   - synchronous=NORMAL
//   - busy_timeout (default 5000ms)
//   - one pooled connection: SQLite serializes writers anyway
//
// Each UpsertNodes call is one transaction. Readers see whole batches or
// nothing of them; no isolation stronger than that is promised.
package store
