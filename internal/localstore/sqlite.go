package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"todosync/internal/identity"
	"todosync/internal/service"
)

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

// BusyTimeoutMS is how long a writer waits on a locked database.
const BusyTimeoutMS = 5000

var schema = []string{
	`CREATE TABLE IF NOT EXISTS lists (
		id       TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		body     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lists_position ON lists(position)`,
}

const (
	selectCollectionSQL = `SELECT body FROM lists ORDER BY position`
	selectEntrySQL      = `SELECT body FROM lists WHERE id = ?`
	deleteAllSQL        = `DELETE FROM lists`
	deleteEntrySQL      = `DELETE FROM lists WHERE id = ?`
	insertAtSQL         = `INSERT INTO lists (id, position, body) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body`
	upsertEntrySQL = `INSERT INTO lists (id, position, body)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM lists), ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body`
)

// SQLite is a Store persisted in an embedded SQLite database.
type SQLite struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the store at path.
// If logger is nil, the store operates silently.
func OpenSQLite(path string, logger *zap.SugaredLogger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger.Debugw("Opening local store", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, service.MarkLocalStore(errors.Wrap(err, "failed to create store directory"))
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, service.MarkLocalStore(errors.Wrap(err, "failed to open store"))
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, service.MarkLocalStore(errors.Wrap(err, "failed to ping store"))
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", BusyTimeoutMS),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, service.MarkLocalStore(errors.Wrapf(err, "failed to apply %q", p))
		}
	}

	s := &SQLite{db: db, log: logger}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Infow("Local store opened", "path", path, "schema_version", SchemaVersion)
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return service.MarkLocalStore(errors.Wrap(err, "failed to read schema version"))
	}
	if version > SchemaVersion {
		return service.MarkLocalStore(errors.Newf("store schema version %d is newer than supported %d", version, SchemaVersion))
	}
	if version == SchemaVersion {
		return nil
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return service.MarkLocalStore(errors.Wrap(err, "failed to create schema"))
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return service.MarkLocalStore(errors.Wrap(err, "failed to record schema version"))
	}
	return nil
}

// Close checkpoints the WAL and closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.log.Warnw("Failed to checkpoint WAL", "error", err)
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return service.MarkLocalStore(errors.Wrap(err, "failed to close store"))
	}
	return nil
}

// ReadCollection implements Store.
func (s *SQLite) ReadCollection(ctx context.Context) ([]service.List, error) {
	rows, err := s.db.QueryContext(ctx, selectCollectionSQL)
	if err != nil {
		return nil, service.MarkLocalStore(errors.Wrap(err, "failed to read collection"))
	}
	defer rows.Close()

	lists := []service.List{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, service.MarkLocalStore(errors.Wrap(err, "failed to scan list"))
		}
		l, err := decode(body)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, service.MarkLocalStore(errors.Wrap(err, "failed to read collection"))
	}
	return lists, nil
}

// WriteCollection implements Store.
func (s *SQLite) WriteCollection(ctx context.Context, lists []service.List) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return service.MarkLocalStore(errors.Wrap(err, "failed to begin collection write"))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteAllSQL); err != nil {
		return service.MarkLocalStore(errors.Wrap(err, "failed to clear collection"))
	}
	for i, l := range lists {
		body, err := encode(l)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertAtSQL, l.ID.String(), i, body); err != nil {
			return service.MarkLocalStore(errors.Wrapf(err, "failed to write list %s", l.ID))
		}
	}
	if err := tx.Commit(); err != nil {
		return service.MarkLocalStore(errors.Wrap(err, "failed to commit collection write"))
	}
	return nil
}

// ReadEntry implements Store.
func (s *SQLite) ReadEntry(ctx context.Context, id identity.ID) (service.List, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, selectEntrySQL, id.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return service.List{}, false, nil
	}
	if err != nil {
		return service.List{}, false, service.MarkLocalStore(errors.Wrapf(err, "failed to read list %s", id))
	}
	l, err := decode(body)
	if err != nil {
		return service.List{}, false, err
	}
	return l, true, nil
}

// WriteEntry implements Store.
func (s *SQLite) WriteEntry(ctx context.Context, id identity.ID, l service.List) error {
	body, err := encode(l)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertEntrySQL, id.String(), body); err != nil {
		return service.MarkLocalStore(errors.Wrapf(err, "failed to write list %s", id))
	}
	return nil
}

// RemoveEntry implements Store.
func (s *SQLite) RemoveEntry(ctx context.Context, id identity.ID) error {
	if _, err := s.db.ExecContext(ctx, deleteEntrySQL, id.String()); err != nil {
		return service.MarkLocalStore(errors.Wrapf(err, "failed to remove list %s", id))
	}
	return nil
}

func encode(l service.List) (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", service.MarkLocalStore(errors.Wrapf(err, "failed to encode list %s", l.ID))
	}
	return string(data), nil
}

func decode(body string) (service.List, error) {
	var l service.List
	if err := json.Unmarshal([]byte(body), &l); err != nil {
		return service.List{}, service.MarkLocalStore(errors.Wrap(err, "corrupt list record"))
	}
	return l, nil
}
