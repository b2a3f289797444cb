package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/zeegglar/GRCora-sub003/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
	"github.com/zeegglar/GRCora-sub003/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// control, chunk and embedding store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.grcora/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".grcora", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ControlStore returns a ControlStore interface backed by this store.
func (s *Store) ControlStore() driven.ControlStore {
	return &controlStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Control Store ====================

// controlStore implements driven.ControlStore.
type controlStore struct {
	store *Store
}

var _ driven.ControlStore = (*controlStore)(nil)

// SaveControl stores or updates a control record.
func (s *controlStore) SaveControl(ctx context.Context, record *domain.ControlRecord) error {
	now := time.Now().UTC()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO controls (framework, control_id, family, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(framework, control_id) DO UPDATE SET
			family = excluded.family,
			title = excluded.title,
			body = excluded.body,
			updated_at = excluded.updated_at
	`, string(record.Framework), record.ControlID, record.Family, record.Title, record.Body, now, now)

	if err != nil {
		return fmt.Errorf("saving control: %w", err)
	}
	return nil
}

// GetControl retrieves a control by framework and ID.
func (s *controlStore) GetControl(ctx context.Context, framework domain.Framework, controlID string) (*domain.ControlRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT framework, control_id, family, title, body
		FROM controls WHERE framework = ? AND control_id = ?
	`, string(framework), controlID)

	var record domain.ControlRecord
	var fw string
	if err := row.Scan(&fw, &record.ControlID, &record.Family, &record.Title, &record.Body); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning control: %w", err)
	}
	record.Framework = domain.Framework(fw)

	return &record, nil
}

// ListControls returns all controls for a framework, ordered by ID.
func (s *controlStore) ListControls(ctx context.Context, framework domain.Framework) ([]domain.ControlRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT framework, control_id, family, title, body
		FROM controls WHERE framework = ?
		ORDER BY control_id
	`, string(framework))
	if err != nil {
		return nil, fmt.Errorf("querying controls: %w", err)
	}
	defer rows.Close()

	var records []domain.ControlRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var record domain.ControlRecord
		var fw string
		if err := rows.Scan(&fw, &record.ControlID, &record.Family, &record.Title, &record.Body); err != nil {
			return nil, fmt.Errorf("scanning control: %w", err)
		}
		record.Framework = domain.Framework(fw)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating controls: %w", err)
	}

	return records, nil
}

// CountControls returns the number of controls for a framework.
func (s *controlStore) CountControls(ctx context.Context, framework domain.Framework) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM controls WHERE framework = ?", string(framework)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting controls: %w", err)
	}
	return count, nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// ReplaceChunks atomically replaces the whole chunk set for a control.
// Delete and insert run in one transaction so re-segmentation never
// leaves a stale partial chunk beside new ones.
func (s *chunkStore) ReplaceChunks(ctx context.Context, framework domain.Framework, controlID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE framework = ? AND control_id = ?",
		string(framework), controlID); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, framework, control_id, heading, content, token_count, position, overlap_prev, overlap_next)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, string(chunk.Framework), chunk.ControlID,
			chunk.Heading, chunk.Content, chunk.TokenCount, chunk.Index,
			chunk.OverlapTokensPrev, chunk.OverlapTokensNext); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *chunkStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, framework, control_id, heading, content, token_count, position, overlap_prev, overlap_next
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunkRow(row)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// ListChunks retrieves all chunks for a control in index order.
func (s *chunkStore) ListChunks(ctx context.Context, framework domain.Framework, controlID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, framework, control_id, heading, content, token_count, position, overlap_prev, overlap_next
		FROM chunks WHERE framework = ? AND control_id = ?
		ORDER BY position
	`, string(framework), controlID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// ListChunksByFramework returns all chunks for a framework.
func (s *chunkStore) ListChunksByFramework(ctx context.Context, framework domain.Framework) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, framework, control_id, heading, content, token_count, position, overlap_prev, overlap_next
		FROM chunks WHERE framework = ?
		ORDER BY control_id, position
	`, string(framework))
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// ListChunksMissingEmbeddings returns chunks without a stored embedding
// for the given model, in deterministic order.
func (s *chunkStore) ListChunksMissingEmbeddings(ctx context.Context, framework domain.Framework, modelID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.framework, c.control_id, c.heading, c.content, c.token_count, c.position, c.overlap_prev, c.overlap_next
		FROM chunks c
		LEFT JOIN embeddings e ON e.chunk_id = c.id AND e.model_id = ?
		WHERE c.framework = ? AND e.chunk_id IS NULL
		ORDER BY c.control_id, c.position
	`, modelID, string(framework))
	if err != nil {
		return nil, fmt.Errorf("querying pending chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// CountChunks returns the number of chunks for a framework.
func (s *chunkStore) CountChunks(ctx context.Context, framework domain.Framework) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE framework = ?", string(framework)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// CountChunksWithEmbeddings returns how many of a framework's chunks
// have a stored embedding for the given model.
func (s *chunkStore) CountChunksWithEmbeddings(ctx context.Context, framework domain.Framework, modelID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM chunks c
		JOIN embeddings e ON e.chunk_id = c.id AND e.model_id = ?
		WHERE c.framework = ?
	`, modelID, string(framework)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting embedded chunks: %w", err)
	}
	return count, nil
}

// ==================== Embedding Store ====================

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// SaveEmbedding stores an entry, upserting per chunk and model.
func (s *embeddingStore) SaveEmbedding(ctx context.Context, entry *domain.EmbeddingEntry) error {
	if entry.ChunkID == "" || entry.ModelID == "" {
		return domain.ErrInvalidInput
	}

	vectorBlob := float32SliceToBytes(entry.Vector)

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (chunk_id, model_id, model_version, vector, dims, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id, model_id) DO UPDATE SET
			model_version = excluded.model_version,
			vector = excluded.vector,
			dims = excluded.dims
	`, entry.ChunkID, entry.ModelID, entry.ModelVersion, vectorBlob, len(entry.Vector), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the entry for a chunk and model.
func (s *embeddingStore) GetEmbedding(ctx context.Context, chunkID, modelID string) (*domain.EmbeddingEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT chunk_id, model_id, model_version, vector
		FROM embeddings WHERE chunk_id = ? AND model_id = ?
	`, chunkID, modelID)

	var entry domain.EmbeddingEntry
	var vectorBlob []byte
	if err := row.Scan(&entry.ChunkID, &entry.ModelID, &entry.ModelVersion, &vectorBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}
	entry.Vector = bytesToFloat32Slice(vectorBlob)

	return &entry, nil
}

// Dimensions returns the vector dimension already stored for the model,
// or 0 when no entries exist yet.
func (s *embeddingStore) Dimensions(ctx context.Context, modelID string) (int, error) {
	var dims int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT dims FROM embeddings WHERE model_id = ? LIMIT 1", modelID).Scan(&dims)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("reading stored dimensions: %w", err)
	}
	return dims, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var fw string

	if err := row.Scan(&chunk.ID, &fw, &chunk.ControlID, &chunk.Heading, &chunk.Content,
		&chunk.TokenCount, &chunk.Index, &chunk.OverlapTokensPrev, &chunk.OverlapTokensNext); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Framework = domain.Framework(fw)

	return &chunk, nil
}

// collectChunks scans all chunk rows.
func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var fw string
		if err := rows.Scan(&chunk.ID, &fw, &chunk.ControlID, &chunk.Heading, &chunk.Content,
			&chunk.TokenCount, &chunk.Index, &chunk.OverlapTokensPrev, &chunk.OverlapTokensNext); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Framework = domain.Framework(fw)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
