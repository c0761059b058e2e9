package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"MarketPulse/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type recordRow struct {
	ID        uint   `gorm:"primaryKey"`
	Kind      string `gorm:"not null;uniqueIndex:idx_records_stream_key,priority:1;index:idx_records_stream,priority:1"`
	Symbol    string `gorm:"not null;uniqueIndex:idx_records_stream_key,priority:2;index:idx_records_stream,priority:2"`
	RecordKey string `gorm:"not null;uniqueIndex:idx_records_stream_key,priority:3"`
	Data      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (recordRow) TableName() string { return "records" }

type etlEventRow struct {
	ID        string    `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	Source    string
	Symbol    string
	Count     int
	Message   string
}

func (etlEventRow) TableName() string { return "etl_events" }

type reportRow struct {
	ID          uint      `gorm:"primaryKey"`
	Symbol      string    `gorm:"index:idx_reports_symbol,priority:1;not null"`
	GeneratedAt time.Time `gorm:"index:idx_reports_symbol,priority:2"`
	PriceTrend  *string
	Interest    *string
	Correlation *float64
	Data        string `gorm:"type:text;not null"`
}

func (reportRow) TableName() string { return "analysis_reports" }

// PostgresStore is the gorm-backed Store for shared deployments.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&recordRow{}, &etlEventRow{}, &reportRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Println("[INFO] postgres store connected")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) InsertRecords(ctx context.Context, kind model.RecordKind, symbol string, recs []model.KeyedRecord) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kr := range recs {
			data, err := json.Marshal(kr.Record)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			row := recordRow{
				Kind:      string(kind),
				Symbol:    symbol,
				RecordKey: recordKey(kr.Key),
				Data:      string(data),
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("insert record: %w", res.Error)
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *PostgresStore) Latest(ctx context.Context, kind model.RecordKind, symbol string, limit int) ([]model.Record, error) {
	q := s.db.WithContext(ctx).
		Where("kind = ? AND symbol = ?", string(kind), symbol).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []recordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	out := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := decodeRecord(r.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *PostgresStore) RecordETL(ctx context.Context, evt *model.ETLEvent) error {
	ensureEventID(evt)
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	return s.db.WithContext(ctx).Create(&etlEventRow{
		ID:        evt.ID,
		Timestamp: evt.Timestamp,
		Source:    evt.Source,
		Symbol:    evt.Symbol,
		Count:     evt.Count,
		Message:   evt.Message,
	}).Error
}

func (s *PostgresStore) ETLHistory(ctx context.Context, limit int) ([]model.ETLEvent, error) {
	q := s.db.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []etlEventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query etl events: %w", err)
	}
	out := make([]model.ETLEvent, len(rows))
	for i, r := range rows {
		out[i] = model.ETLEvent{
			ID:        r.ID,
			Source:    r.Source,
			Symbol:    r.Symbol,
			Count:     r.Count,
			Message:   r.Message,
			Timestamp: r.Timestamp,
		}
	}
	return out, nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, rep *model.AnalysisReport) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	row := reportRow{
		Symbol:      rep.Symbol,
		GeneratedAt: rep.GeneratedAt,
		Correlation: rep.Correlation,
		Data:        string(data),
	}
	if rep.PriceTrend != nil {
		v := string(*rep.PriceTrend)
		row.PriceTrend = &v
	}
	if rep.SocialInterest != nil {
		v := string(*rep.SocialInterest)
		row.Interest = &v
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	log.Println("[INFO] closing postgres store")
	return sqlDB.Close()
}
