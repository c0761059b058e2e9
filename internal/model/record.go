package model

import "time"

// RecordKind identifies which stream a stored record belongs to.
type RecordKind string

const (
	KindPrice   RecordKind = "price"
	KindMention RecordKind = "mention"
)

// Record is one stored document as returned by the source API.
type Record map[string]any

// KeyedRecord pairs a record with the key used to de-duplicate it within its
// (kind, symbol) stream, e.g. the bar datetime for prices.
type KeyedRecord struct {
	Key    string
	Record Record
}

// ETLEvent is a log entry written after each collector insert.
type ETLEvent struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Symbol    string    `json:"symbol"`
	Count     int       `json:"count"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
