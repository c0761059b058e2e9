package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"MarketPulse/internal/model"
)

type streamKey struct {
	kind   model.RecordKind
	symbol string
}

type memoryEntry struct {
	key    string
	record model.Record
}

// MemoryStore keeps everything in process memory. Used for tests and when no
// database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	streams map[streamKey][]memoryEntry
	events  []model.ETLEvent
	reports []model.AnalysisReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[streamKey][]memoryEntry)}
}

func (m *MemoryStore) InsertRecords(_ context.Context, kind model.RecordKind, symbol string, recs []model.KeyedRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sk := streamKey{kind, symbol}
	seen := make(map[string]bool, len(m.streams[sk]))
	for _, e := range m.streams[sk] {
		seen[e.key] = true
	}

	inserted := 0
	for _, kr := range recs {
		key := recordKey(kr.Key)
		if seen[key] {
			continue
		}
		rec, err := cloneRecord(kr.Record)
		if err != nil {
			return inserted, err
		}
		seen[key] = true
		m.streams[sk] = append(m.streams[sk], memoryEntry{key: key, record: rec})
		inserted++
	}
	return inserted, nil
}

func (m *MemoryStore) Latest(_ context.Context, kind model.RecordKind, symbol string, limit int) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.streams[streamKey{kind, symbol}]
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Record, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		rec, err := cloneRecord(entries[i].record)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) RecordETL(_ context.Context, evt *model.ETLEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureEventID(evt)
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	m.events = append(m.events, *evt)
	return nil
}

func (m *MemoryStore) ETLHistory(_ context.Context, limit int) ([]model.ETLEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ETLEvent, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *MemoryStore) SaveReport(_ context.Context, rep *model.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, *rep)
	return nil
}

// Reports returns the saved reports in insertion order.
func (m *MemoryStore) Reports() []model.AnalysisReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AnalysisReport, len(m.reports))
	copy(out, m.reports)
	return out
}

func (m *MemoryStore) Close() error { return nil }

// cloneRecord round-trips through JSON so stored records look the same as
// those read back from the SQL backends and callers never share a map with
// the store.
func cloneRecord(rec model.Record) (model.Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return decodeRecord(string(data))
}
