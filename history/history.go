// Package history persists the append-only log of accepted location fixes.
//
// Two backends are provided: FileStore keeps the whole history as a JSON
// array that is atomically rewritten on every append, and SQLiteStore inserts
// one row per entry. Both return entries in append order.
package history

import (
	"errors"

	"github.com/nwah/fujisuite-tracker/nav"
)

// ErrPersistenceFailed wraps every storage failure.
var ErrPersistenceFailed = errors.New("persistence failed")

// Entry is one accepted fix. Entries are immutable once appended.
type Entry struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Timestamp int64   `json:"timestamp"` // milliseconds, producer clock
}

// NewEntry builds an entry from a coordinate and a millisecond timestamp.
func NewEntry(c nav.Coordinate, timestampMillis int64) Entry {
	return Entry{Lat: c.Lat, Lon: c.Lon, Timestamp: timestampMillis}
}

// Coordinate returns the entry position.
func (e Entry) Coordinate() nav.Coordinate {
	return nav.Coordinate{Lat: e.Lat, Lon: e.Lon}
}

// Store is implemented by every history backend.
type Store interface {
	Append(e Entry) error
	LoadAll() ([]Entry, error)
	Close() error
}
