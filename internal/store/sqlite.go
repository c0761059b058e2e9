package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"MarketPulse/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records as JSON documents in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the CLI read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			kind        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			record_key  TEXT NOT NULL,
			created_at  INTEGER NOT NULL,
			data        TEXT NOT NULL,
			UNIQUE(kind, symbol, record_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_stream ON records(kind, symbol, id)`,

		`CREATE TABLE IF NOT EXISTS etl_events (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			source    TEXT,
			symbol    TEXT,
			count     INTEGER,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_etl_ts ON etl_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS analysis_reports (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol       TEXT NOT NULL,
			generated_at INTEGER NOT NULL,
			price_trend  TEXT,
			interest     TEXT,
			correlation  REAL,
			data         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_symbol ON analysis_reports(symbol, generated_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertRecords(ctx context.Context, kind model.RecordKind, symbol string, recs []model.KeyedRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	inserted := 0
	for _, kr := range recs {
		data, err := json.Marshal(kr.Record)
		if err != nil {
			return 0, fmt.Errorf("marshal record: %w", err)
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO records
			(kind, symbol, record_key, created_at, data) VALUES (?,?,?,?,?)`,
			string(kind), symbol, recordKey(kr.Key), now, string(data))
		if err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, kind model.RecordKind, symbol string, limit int) ([]model.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM records
		WHERE kind = ? AND symbol = ? ORDER BY id DESC LIMIT ?`,
		string(kind), symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordETL(ctx context.Context, evt *model.ETLEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureEventID(evt)
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO etl_events
		(id, timestamp, source, symbol, count, message) VALUES (?,?,?,?,?,?)`,
		evt.ID, evt.Timestamp.UnixNano(), evt.Source, evt.Symbol, evt.Count, evt.Message,
	)
	return err
}

func (s *SQLiteStore) ETLHistory(ctx context.Context, limit int) ([]model.ETLEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, source, symbol, count, message
		FROM etl_events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query etl events: %w", err)
	}
	defer rows.Close()

	var out []model.ETLEvent
	for rows.Next() {
		var evt model.ETLEvent
		var ts int64
		if err := rows.Scan(&evt.ID, &ts, &evt.Source, &evt.Symbol, &evt.Count, &evt.Message); err != nil {
			return nil, fmt.Errorf("scan etl event: %w", err)
		}
		evt.Timestamp = time.Unix(0, ts)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, rep *model.AnalysisReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var trend, interest sql.NullString
	var corr sql.NullFloat64
	if rep.PriceTrend != nil {
		trend = sql.NullString{String: string(*rep.PriceTrend), Valid: true}
	}
	if rep.SocialInterest != nil {
		interest = sql.NullString{String: string(*rep.SocialInterest), Valid: true}
	}
	if rep.Correlation != nil {
		corr = sql.NullFloat64{Float64: *rep.Correlation, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO analysis_reports
		(symbol, generated_at, price_trend, interest, correlation, data) VALUES (?,?,?,?,?,?)`,
		rep.Symbol, rep.GeneratedAt.Unix(), trend, interest, corr, string(data),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

// decodeRecord keeps numbers as json.Number so stored values round-trip exactly.
func decodeRecord(data string) (model.Record, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var rec model.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
