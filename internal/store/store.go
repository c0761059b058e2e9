package store

import (
	"context"
	"fmt"

	"MarketPulse/internal/model"

	"github.com/google/uuid"
)

// Store persists collected records, ETL events and analysis reports.
type Store interface {
	// InsertRecords appends records to the (kind, symbol) stream, ignoring keys
	// already present. It returns how many records were actually inserted.
	InsertRecords(ctx context.Context, kind model.RecordKind, symbol string, recs []model.KeyedRecord) (int, error)
	// Latest returns up to limit records of the stream, newest first.
	// limit <= 0 returns the whole stream.
	Latest(ctx context.Context, kind model.RecordKind, symbol string, limit int) ([]model.Record, error)
	RecordETL(ctx context.Context, evt *model.ETLEvent) error
	// ETLHistory returns up to limit events, newest first.
	ETLHistory(ctx context.Context, limit int) ([]model.ETLEvent, error)
	SaveReport(ctx context.Context, rep *model.AnalysisReport) error
	Close() error
}

// Open builds the backend named by driver: "sqlite", "postgres" or "memory".
func Open(driver, sqlitePath, postgresDSN string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(sqlitePath)
	case "postgres":
		return NewPostgresStore(postgresDSN)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// recordKey returns the de-duplication key, generating a unique one when the
// caller supplied none.
func recordKey(key string) string {
	if key == "" {
		return uuid.NewString()
	}
	return key
}

func ensureEventID(evt *model.ETLEvent) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
}
