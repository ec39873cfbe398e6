// Package ftsindex maintains an SQLite FTS5 mirror of node names and
// file paths, used by the query engine as a search accelerant for plain
// multi-term queries. The graph store stays the source of truth: the
// index is rebuilt from it at load and patched alongside every
// ProcessChange, and the engine degrades to the in-memory regex scan
// whenever FTS is unavailable.
package ftsindex

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/arcbyte/codegraph/internal/graphstore"
)

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS entity_fts USING fts5(
    id UNINDEXED,
    name,
    file_path
);
`

// Index wraps the FTS5 table. A nil *Index is valid and inert, so the
// engine can carry one unconditionally.
type Index struct {
	db *sql.DB
}

// Open creates the index at path (":memory:" for the usual in-process
// accelerant). Returns an error when the driver or FTS5 is unavailable;
// callers treat that as "no accelerant", not a failure.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fts database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create fts table: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

// ReplaceFile swaps file's rows for the given nodes, mirroring the
// bridge's whole-file edge rewrite.
func (ix *Index) ReplaceFile(file string, nodes []*graphstore.Node) error {
	if ix == nil || ix.db == nil {
		return nil
	}
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("begin fts update: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entity_fts WHERE file_path = ?`, file); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear fts rows: %w", err)
	}
	for _, n := range nodes {
		if _, err := tx.Exec(`INSERT INTO entity_fts(id, name, file_path) VALUES (?, ?, ?)`,
			n.ID(), n.Name, n.FilePath); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert fts row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fts update: %w", err)
	}
	return nil
}

// RemoveFile drops every row for file.
func (ix *Index) RemoveFile(file string) error {
	if ix == nil || ix.db == nil {
		return nil
	}
	if _, err := ix.db.Exec(`DELETE FROM entity_fts WHERE file_path = ?`, file); err != nil {
		return fmt.Errorf("delete fts rows: %w", err)
	}
	return nil
}

// Rebuild repopulates the index from scratch out of the store.
func (ix *Index) Rebuild(store *graphstore.Store) error {
	if ix == nil || ix.db == nil {
		return nil
	}
	if _, err := ix.db.Exec(`DELETE FROM entity_fts`); err != nil {
		return fmt.Errorf("truncate fts table: %w", err)
	}
	for _, file := range store.AllFiles() {
		if err := ix.ReplaceFile(file, store.NodesInFile(file)); err != nil {
			return err
		}
	}
	return nil
}

// Search returns node ids ranked by FTS relevance. Terms are quoted so
// user input cannot inject FTS5 query syntax; multiple terms AND
// together.
func (ix *Index) Search(query string, limit int) ([]string, error) {
	if ix == nil || ix.db == nil {
		return nil, fmt.Errorf("fts index unavailable")
	}
	match := quoteTerms(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := ix.db.Query(
		`SELECT id FROM entity_fts WHERE entity_fts MATCH ? ORDER BY rank LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan fts row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of indexed rows, used by doctor to detect
// drift against the store's node count.
func (ix *Index) Count() (int, error) {
	if ix == nil || ix.db == nil {
		return 0, fmt.Errorf("fts index unavailable")
	}
	var n int
	if err := ix.db.QueryRow(`SELECT count(*) FROM entity_fts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fts rows: %w", err)
	}
	return n, nil
}

func quoteTerms(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, ``)+`"`)
	}
	return strings.Join(quoted, " ")
}
