// Package db persists the indexed view of fetched crates: one row per
// crate version, one row per documented item, and the re-export table used
// for cross-crate path resolution.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_crate_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_item_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_reexport_id START 1;`,

		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			format_version INTEGER NOT NULL DEFAULT 0,
			fetched_at TIMESTAMP,
			indexed_at TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER REFERENCES crates(id),
			rustdoc_id TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			summary TEXT,
			signature TEXT,
			content_hash TEXT,
			doc_links TEXT,
			fragment_names TEXT,
			UNIQUE(crate_id, rustdoc_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_crate ON items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items (path)`,
		`CREATE INDEX IF NOT EXISTS idx_items_name ON items (name)`,

		`CREATE TABLE IF NOT EXISTS reexports (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id),
			local_prefix TEXT NOT NULL,
			source_crate TEXT NOT NULL,
			source_prefix TEXT NOT NULL,
			UNIQUE(crate_id, local_prefix)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reexports_crate ON reexports (crate_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID            int
	Name          string
	Version       string
	FormatVersion int
	FetchedAt     *time.Time
	IndexedAt     *time.Time
}

const crateColumns = `id, name, version, format_version, fetched_at, indexed_at`

func scanCrate(row *sql.Row) (*Crate, error) {
	var c Crate
	err := row.Scan(&c.ID, &c.Name, &c.Version, &c.FormatVersion, &c.FetchedAt, &c.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCrate returns the row for a crate version, creating it on first
// sight.
func (db *DB) UpsertCrate(name, version string, formatVersion int) (*Crate, error) {
	c, err := db.GetCrate(name, version)
	if err != nil {
		return nil, fmt.Errorf("checking crate: %w", err)
	}
	if c != nil {
		return c, nil
	}

	_, err = db.conn.Exec(
		`INSERT INTO crates (id, name, version, format_version) VALUES (nextval('seq_crate_id'), ?, ?, ?)`,
		name, version, formatVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	var id int
	if err := db.conn.QueryRow("SELECT currval('seq_crate_id')").Scan(&id); err != nil {
		return nil, fmt.Errorf("getting crate id: %w", err)
	}

	return &Crate{ID: id, Name: name, Version: version, FormatVersion: formatVersion}, nil
}

func (db *DB) MarkCrateFetched(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET fetched_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) MarkCrateIndexed(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET indexed_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) GetCrate(name, version string) (*Crate, error) {
	return scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+` FROM crates WHERE name = ? AND version = ?`,
		name, version,
	))
}

// GetLatestCrate returns the most recently indexed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	return scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+`
		 FROM crates WHERE name = ? AND indexed_at IS NOT NULL
		 ORDER BY indexed_at DESC LIMIT 1`, name,
	))
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT ` + crateColumns + ` FROM crates ORDER BY name, version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		var c Crate
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.FormatVersion, &c.FetchedAt, &c.IndexedAt); err != nil {
			return nil, err
		}
		crates = append(crates, c)
	}
	return crates, rows.Err()
}

// --- Item operations ---

type Item struct {
	ID            int
	CrateID       int
	RustdocID     string
	Name          string
	Path          string
	Kind          string
	Summary       string
	Signature     string
	ContentHash   string
	DocLinks      string // JSON-encoded map[string]string
	FragmentNames string // JSON-encoded []string
}

const itemColumns = `id, crate_id, rustdoc_id, name, path, kind, summary, signature, content_hash, doc_links, fragment_names`

func (it *Item) scanDest() []interface{} {
	return []interface{}{
		&it.ID, &it.CrateID, &it.RustdocID, &it.Name, &it.Path, &it.Kind,
		&it.Summary, &it.Signature, &it.ContentHash, &it.DocLinks, &it.FragmentNames,
	}
}

func (db *DB) InsertItem(item *Item) error {
	_, err := db.conn.Exec(
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (nextval('seq_item_id'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.CrateID, item.RustdocID, item.Name, item.Path, item.Kind,
		item.Summary, item.Signature, item.ContentHash, item.DocLinks, item.FragmentNames,
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	return db.conn.QueryRow(
		`SELECT id FROM items WHERE crate_id = ? AND rustdoc_id = ?`,
		item.CrateID, item.RustdocID,
	).Scan(&item.ID)
}

func (db *DB) GetItemByPath(crateID int, path string) (*Item, error) {
	var it Item
	err := db.conn.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE crate_id = ? AND path = ?`,
		crateID, path,
	).Scan(it.scanDest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (db *DB) GetItemByRustdocID(crateID int, rustdocID string) (*Item, error) {
	var it Item
	err := db.conn.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE crate_id = ? AND rustdoc_id = ?`,
		crateID, rustdocID,
	).Scan(it.scanDest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SearchItems matches item names and paths by case-insensitive substring,
// optionally restricted to crates. Results come back paths first so exact
// names sort ahead of long paths that merely contain the query.
func (db *DB) SearchItems(query string, crateIDs []int, limit int) ([]Item, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var crateFilter string
	params := []interface{}{pattern, pattern}
	if len(crateIDs) > 0 {
		placeholders := make([]string, len(crateIDs))
		for i, id := range crateIDs {
			placeholders[i] = "?"
			params = append(params, id)
		}
		crateFilter = fmt.Sprintf(` AND crate_id IN (%s)`, strings.Join(placeholders, ","))
	}
	params = append(params, limit)

	rows, err := db.conn.Query(
		`SELECT `+itemColumns+` FROM items
		 WHERE (lower(name) LIKE ? OR lower(path) LIKE ?)`+crateFilter+`
		 ORDER BY length(name), path
		 LIMIT ?`, params...,
	)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(it.scanDest()...); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListItemsByKind returns a crate's items of one kind in path order.
func (db *DB) ListItemsByKind(crateID int, kind string) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT `+itemColumns+` FROM items WHERE crate_id = ? AND kind = ? ORDER BY path`,
		crateID, kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(it.scanDest()...); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) DeleteItemsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID)
	return err
}

func (db *DB) CountItems(crateID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE crate_id = ?`, crateID).Scan(&count)
	return count, err
}

// --- Reexport operations ---

func (db *DB) InsertReexport(crateID int, localPrefix, sourceCrate, sourcePrefix string) error {
	_, err := db.conn.Exec(
		`INSERT INTO reexports (id, crate_id, local_prefix, source_crate, source_prefix)
		 VALUES (nextval('seq_reexport_id'), ?, ?, ?, ?)
		 ON CONFLICT (crate_id, local_prefix) DO UPDATE SET source_crate = ?, source_prefix = ?`,
		crateID, localPrefix, sourceCrate, sourcePrefix, sourceCrate, sourcePrefix,
	)
	return err
}

func (db *DB) DeleteReexportsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM reexports WHERE crate_id = ?`, crateID)
	return err
}

// ResolveReexport checks if the given path matches a re-export in this crate.
// Tries exact match first, then longest prefix match (for glob re-exports).
// Returns the source crate name and resolved source path.
func (db *DB) ResolveReexport(crateID int, path string) (sourceCrate, sourcePath string, found bool) {
	var localPrefix, srcCrate, srcPrefix string
	err := db.conn.QueryRow(
		`SELECT local_prefix, source_crate, source_prefix FROM reexports
		 WHERE crate_id = ? AND (local_prefix = ? OR ? LIKE local_prefix || '::%')
		 ORDER BY length(local_prefix) DESC LIMIT 1`,
		crateID, path, path,
	).Scan(&localPrefix, &srcCrate, &srcPrefix)
	if err != nil {
		return "", "", false
	}

	if localPrefix == path {
		return srcCrate, srcPrefix, true
	}
	suffix := path[len(localPrefix):]
	return srcCrate, srcPrefix + suffix, true
}
