package preferences

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"raton/internal/flight"
	logx "raton/pkg/logx"
)

//go:embed schema.sql
var schemaSQL string

// sqliteStore keeps the YAML document of each chat in one row.
type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
	now func() time.Time
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return newSQLiteStore(db, log), nil
}

func newSQLiteStore(db *sql.DB, log logx.Logger) *sqliteStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &sqliteStore{db: db, log: log, now: time.Now}
}

func (s *sqliteStore) Save(ctx context.Context, chatID int64, p flight.Preferences) error {
	b, err := Encode(p)
	if err != nil {
		return storageErr(chatID, "invalid preferences", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preferences(chat_id, doc, updated_at) VALUES(?,?,?)
		 ON CONFLICT(chat_id) DO UPDATE SET doc=excluded.doc, updated_at=excluded.updated_at`,
		chatID, string(b), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storageErr(chatID, "write", err)
	}
	return nil
}

func (s *sqliteStore) Update(ctx context.Context, chatID int64, p flight.Preferences) error {
	return s.Save(ctx, chatID, p)
}

func (s *sqliteStore) Load(ctx context.Context, chatID int64) (flight.Preferences, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM preferences WHERE chat_id = ?`, chatID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return flight.Preferences{}, notFound(chatID)
	}
	if err != nil {
		return flight.Preferences{}, storageErr(chatID, "read", err)
	}
	p, err := Decode([]byte(doc))
	if err != nil {
		return flight.Preferences{}, storageErr(chatID, "invalid document", err)
	}
	return p, nil
}

func (s *sqliteStore) Delete(ctx context.Context, chatID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE chat_id = ?`, chatID)
	if err != nil {
		return storageErr(chatID, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(chatID, "delete", err)
	}
	if n == 0 {
		return notFound(chatID)
	}
	return nil
}

func (s *sqliteStore) ListUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM preferences ORDER BY chat_id`)
	if err != nil {
		return nil, storageErr(0, "list", err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(0, "list", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(0, "list", err)
	}
	return ids, nil
}

func (s *sqliteStore) Exists(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM preferences WHERE chat_id = ?`, chatID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(chatID, "exists", err)
	}
	return true, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
