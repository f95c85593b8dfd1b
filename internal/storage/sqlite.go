package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "raton/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendDeal(ctx context.Context, r DealRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now().UTC()
	}
	var reasons any
	if len(r.Reasons) > 0 {
		b, err := json.Marshal(r.Reasons)
		if err != nil {
			return err
		}
		reasons = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deals(at, chat_id, offer_id, origin, destination, departure_date, return_date, total, currency, stops, airline, reasons)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.At.Format(time.RFC3339Nano), r.ChatID, r.OfferID, r.Origin, r.Destination, r.DepartureDate,
		nullStr(r.ReturnDate), r.Total, r.Currency, r.Stops, nullStr(r.Airline), reasons,
	)
	return err
}

func (s *sqliteStore) RecentDeals(ctx context.Context, chatID int64, limit int) ([]DealRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		return []DealRecord{}, nil
	}
	const cols = `at, chat_id, offer_id, origin, destination, departure_date, return_date, total, currency, stops, airline, reasons`
	var (
		rows *sql.Rows
		err  error
	)
	if chatID == 0 {
		rows, err = s.db.QueryContext(ctx, `SELECT `+cols+` FROM deals ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+cols+` FROM deals WHERE chat_id = ? ORDER BY id DESC LIMIT ?`, chatID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DealRecord{}
	for rows.Next() {
		var (
			r                         DealRecord
			at                        string
			ret, airline, reasonsJSON sql.NullString
		)
		if err := rows.Scan(&at, &r.ChatID, &r.OfferID, &r.Origin, &r.Destination, &r.DepartureDate,
			&ret, &r.Total, &r.Currency, &r.Stops, &airline, &reasonsJSON); err != nil {
			return nil, err
		}
		if r.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("deal at: %w", err)
		}
		r.ReturnDate = ret.String
		r.Airline = airline.String
		if reasonsJSON.Valid && reasonsJSON.String != "" {
			if err := json.Unmarshal([]byte(reasonsJSON.String), &r.Reasons); err != nil {
				return nil, fmt.Errorf("deal reasons: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
