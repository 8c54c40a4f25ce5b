package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore appends one row per entry to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and applies the
// embedded schema migrations.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrPersistenceFailed, path, err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%w: loading migrations: %v", ErrPersistenceFailed, err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%w: creating sqlite driver: %v", ErrPersistenceFailed, err)
	}

	// m is not closed: closing it would close db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("%w: creating migrate instance: %v", ErrPersistenceFailed, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: migration up failed: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// Append inserts e.
func (s *SQLiteStore) Append(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO location_history (lat, lon, timestamp_ms) VALUES (?, ?, ?)`,
		e.Lat, e.Lon, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting entry: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// LoadAll returns every entry in insertion order.
func (s *SQLiteStore) LoadAll() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT lat, lon, timestamp_ms FROM location_history ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying history: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Lat, &e.Lon, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scanning history: %v", ErrPersistenceFailed, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading history: %v", ErrPersistenceFailed, err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
