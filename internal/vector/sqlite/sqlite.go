// Package sqlite implements vector.Repository on a local SQLite file, so a
// guide collection survives process restarts without any external service.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tripnexus/tripnexus/internal/vector"
)

// Repository stores chunk embeddings in a single SQLite database. One
// database file holds one or more named collections.
type Repository struct {
	db         *sql.DB
	collection string
	path       string
}

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	collection TEXT NOT NULL,
	content    TEXT NOT NULL,
	vector     BLOB NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_embeddings_collection ON embeddings(collection);
`

// New opens (or creates) the store at dataDir and binds it to the named
// collection. Re-opening the same directory reloads all previously
// ingested records.
func New(dataDir, collection string) (*Repository, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tripnexus", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "guides.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Repository{db: db, collection: collection, path: dbPath}, nil
}

// Path returns the database file path.
func (r *Repository) Path() string { return r.path }

// Upsert appends documents inside one transaction: the batch is either
// fully durable or absent, never partially interleaved with a concurrent
// writer.
func (r *Repository) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (id, collection, content, vector, metadata) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, d.ID, r.collection, d.Content, encodeVector(d.Vector), string(meta)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// Search scans the collection and ranks by cosine similarity, descending.
// Equal scores keep insertion order, earlier first. An empty collection
// returns an empty slice.
func (r *Repository) Search(ctx context.Context, query []float32, topK int) ([]vector.SearchResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, id, content, vector, metadata FROM embeddings WHERE collection = ? ORDER BY seq`,
		r.collection)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	defer rows.Close()

	var results []vector.SearchResult
	for rows.Next() {
		var (
			seq      int64
			id       string
			content  string
			blob     []byte
			metaJSON string
		)
		if err := rows.Scan(&seq, &id, &content, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", id, err)
		}
		meta := make(map[string]string)
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
		}
		results = append(results, vector.SearchResult{
			ID:       id,
			Score:    cosine(query, vec),
			Content:  content,
			Metadata: meta,
			Seq:      seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Seq < results[j].Seq
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vector.Repository = (*Repository)(nil)
