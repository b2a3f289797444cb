// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ControlStore: control record persistence
//   - ChunkStore: chunk persistence and embedding coverage queries
//   - EmbeddingStore: per-model embedding entry persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Embedding vectors are stored as little-endian float32 blobs, four bytes per
// component.
//
// # Data Location
//
// By default, the database is stored at ~/.grcora/data/corpus.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
