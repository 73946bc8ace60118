package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/metadata"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore keeps the project catalog in a single SQLite database.
//
// An in-memory B-tree mirrors the folded asset paths so existence checks
// and prefix listings do not hit the database.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB

	// folded asset path -> asset path
	keys *btree.Map[string, string]
}

// NewSQLiteStore opens the catalog. The dbPath can be ":memory:" for an
// in-memory database or a file path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{
		db:   db,
		keys: btree.NewMap[string, string](0),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (ss *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS asset_records (
		key TEXT PRIMARY KEY,
		id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		asset_path TEXT NOT NULL,
		library_path TEXT NOT NULL DEFAULT '',
		last_modified INTEGER NOT NULL DEFAULT 0,
		importer_version TEXT,
		signature TEXT,
		children TEXT,
		params TEXT
	);
	`

	_, err := ss.db.Exec(schema)
	return err
}

// Returns the identifier name defined for this store
func (*SQLiteStore) Name() string {
	return "sqlite"
}

// Open verifies the connection and loads all keys into the B-tree.
func (ss *SQLiteStore) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.db.PingContext(ctx); err != nil {
		return err
	}

	rows, err := ss.db.QueryContext(ctx, "SELECT key, asset_path FROM asset_records")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, assetPath string
		if err := rows.Scan(&key, &assetPath); err != nil {
			return err
		}
		ss.keys.Set(key, assetPath)
	}

	return rows.Err()
}

func (ss *SQLiteStore) Close(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.keys.Clear()
	return ss.db.Close()
}

func (ss *SQLiteStore) Read(ctx context.Context, assetPath string) (*data.Record, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	key := data.FoldKey(assetPath)
	if _, exists := ss.keys.Get(key); !exists {
		return nil, data.ErrNotExist
	}

	row := ss.db.QueryRowContext(ctx, `
		SELECT id, kind, name, asset_path, library_path, last_modified, importer_version, signature, children, params
		FROM asset_records WHERE key = ?
	`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	return rec, err
}

func (ss *SQLiteStore) Write(ctx context.Context, assetPath string, rec *data.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	children, params, err := encodeCollections(rec)
	if err != nil {
		return err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := data.FoldKey(assetPath)
	_, err = ss.db.ExecContext(ctx, `
		INSERT INTO asset_records (key, id, kind, name, asset_path, library_path, last_modified, importer_version, signature, children, params)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			id = excluded.id,
			kind = excluded.kind,
			name = excluded.name,
			asset_path = excluded.asset_path,
			library_path = excluded.library_path,
			last_modified = excluded.last_modified,
			importer_version = excluded.importer_version,
			signature = excluded.signature,
			children = excluded.children,
			params = excluded.params
	`, key, int64(rec.ID), rec.Kind.String(), rec.Name, assetPath, rec.LibraryPath,
		unixNano(rec.LastModified), nullString(rec.ImporterVersion), nullString(rec.Signature),
		children, params)
	if err != nil {
		return fmt.Errorf("failed to write record for '%s': %w", assetPath, err)
	}

	ss.keys.Set(key, assetPath)
	return nil
}

func (ss *SQLiteStore) Delete(ctx context.Context, assetPath string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := data.FoldKey(assetPath)
	if _, exists := ss.keys.Get(key); !exists {
		return data.ErrNotExist
	}

	if _, err := ss.db.ExecContext(ctx, "DELETE FROM asset_records WHERE key = ?", key); err != nil {
		return err
	}

	ss.keys.Delete(key)
	return nil
}

func (ss *SQLiteStore) List(ctx context.Context, prefix string) ([]*data.Record, error) {
	ss.mu.RLock()
	var paths []string
	folded := data.FoldKey(prefix)
	ss.keys.Ascend(folded, func(key, assetPath string) bool {
		if len(key) < len(folded) || key[:len(folded)] != folded {
			return false
		}
		if data.HasPrefix(key, folded) {
			paths = append(paths, assetPath)
		}
		return true
	})
	ss.mu.RUnlock()

	records := make([]*data.Record, 0, len(paths))
	for _, assetPath := range paths {
		rec, err := ss.Read(ctx, assetPath)
		if errors.Is(err, data.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	metadata.SortRecords(records)
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*data.Record, error) {
	var rec data.Record
	var id, lastModified int64
	var kind string
	var importerVersion, signature, children, params sql.NullString

	if err := row.Scan(&id, &kind, &rec.Name, &rec.AssetPath, &rec.LibraryPath, &lastModified,
		&importerVersion, &signature, &children, &params); err != nil {
		return nil, err
	}

	parsed, err := data.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformed, err)
	}

	rec.ID = uint64(id)
	rec.Kind = parsed
	if lastModified != 0 {
		rec.LastModified = time.Unix(0, lastModified)
	}
	rec.ImporterVersion = importerVersion.String
	rec.Signature = signature.String

	if err := decodeCollections(&rec, children.String, params.String); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeCollections(rec *data.Record) (sql.NullString, sql.NullString, error) {
	var children, params sql.NullString

	if len(rec.Children) > 0 {
		bytes, err := json.Marshal(rec.Children)
		if err != nil {
			return children, params, err
		}
		children = sql.NullString{String: string(bytes), Valid: true}
	}

	if len(rec.Params) > 0 {
		bytes, err := json.Marshal(rec.Params)
		if err != nil {
			return children, params, err
		}
		params = sql.NullString{String: string(bytes), Valid: true}
	}

	return children, params, nil
}

func decodeCollections(rec *data.Record, children, params string) error {
	if children != "" {
		if err := json.Unmarshal([]byte(children), &rec.Children); err != nil {
			return fmt.Errorf("%w: %v", data.ErrMalformed, err)
		}
	}

	rec.Params = make(map[string]string)
	if params != "" {
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return fmt.Errorf("%w: %v", data.ErrMalformed, err)
		}
	}
	return nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
