// Package graphstore is the embedded implementation of the spec's
// "external graph store" collaborator: node/edge tables for
// Article/Section/Chunk/Category/Entity/Fact plus a sqlite-vec backed
// vector index, with parameterized upsert helpers for every mutation the
// ingestion pipeline and work queue need.
//
// Every mutating call here is a single auto-commit statement (or a small
// fixed sequence of them) rather than a long-lived transaction, matching
// the "idempotent delete-then-insert" discipline the spec requires so
// that ingestion writes and work-queue writes never need to interleave
// inside one transaction.
package graphstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlitevec.Auto()
}

// Store wraps the SQLite-backed pack.db: node/edge tables plus the
// sqlite-vec virtual tables used for QUERY_VECTOR_INDEX.
type Store struct {
	db            *sql.DB
	embeddingDims int
}

// Open creates or opens a pack.db file at path, initializing the schema
// (including the vec0 virtual tables at the given embedding dimension)
// if it does not already exist.
func Open(path string, embeddingDims int) (*Store, error) {
	if embeddingDims <= 0 {
		embeddingDims = 384
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating pack.db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening pack.db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging pack.db: %w", err)
	}
	if _, err := db.Exec(schemaSQL(embeddingDims)); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing pack.db schema: %w", err)
	}

	return &Store{db: db, embeddingDims: embeddingDims}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for packages (work queue, link
// discovery) whose operations are tightly coupled to raw SQL the spec
// specifies precisely rather than generic graph helpers.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDims returns the fixed vector width this store was opened with.
func (s *Store) EmbeddingDims() int {
	return s.embeddingDims
}

// serializeEmbedding converts a []float64 embedding to the little-endian
// float32 byte layout sqlite-vec's vec0 columns expect.
func serializeEmbedding(v []float64) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return buf
}

func execCtx(ctx context.Context, db *sql.DB, query string, args ...any) error {
	_, err := db.ExecContext(ctx, query, args...)
	return err
}
