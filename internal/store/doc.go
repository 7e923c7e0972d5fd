// Package store provides SQLite-backed durable storage for clipboard history.
//
// The store keeps one table, clipboard_history, with one row per captured
// snapshot. Column names match stores written by earlier ClipCache releases
// so an existing history.db is opened and migrated in place.
//
// # Invariants
//
// Ordering: every history read uses
// ORDER BY is_pinned DESC, timestamp DESC, id DESC, so pinned entries come
// first and ties on captured time fall back to insertion order.
//
// Atomicity: each public operation is one transaction. Save inserts and
// trims to capacity together; History sweeps expired entries and reads in
// the same transaction, so a returned page never holds an entry that had
// already expired.
//
// Pins: a pinned row always has a NULL expiration_time. Pinned rows are
// never removed by capacity eviction or expiry.
//
// # Database Configuration
//
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - _txlock=immediate: transactions take the write lock up front
//
// # Files
//
// The containing directory is forced to 0700 and the database file plus
// its WAL/SHM side files to 0600 on every Open.
package store
