// Package store runs compiled list queries against SQLite or PostgreSQL.
//
// Tables are bound to an entity registry; every registered property is a
// column of the same name. Predicates and orderings are compiled to SQL by
// querysql and rows are scanned back into value records using the
// registry's property kinds.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every SELECT ends its ORDER BY with the table key
//   - String keys sort by code point (COLLATE BINARY / COLLATE "C")
//   - Nulls sort first ascending and last descending on both dialects
//
// Parameterized Values
//   - Filter operands are always bound, never interpolated
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Schema versions are tracked in PRAGMA user_version (SQLite) or the
// schema_version table (PostgreSQL).
package store
