package web

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// DoorStore caches the last vip block (addressing + door address
// books) per doorbell in sqlite. The doorbell naps between calls, so a
// listing request that finds it asleep is served from here instead of
// failing.
type DoorStore struct {
	db *sql.DB
}

// OpenDoorStore opens (and if needed creates) the cache database.
func OpenDoorStore(path string) (*DoorStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS vip_cache (
		doorbell   TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DoorStore{db: db}, nil
}

// SaveVip stores the serialized vip block for a doorbell.
func (s *DoorStore) SaveVip(doorbell string, payload []byte) error {
	_, err := s.db.Exec(`INSERT INTO vip_cache (doorbell, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(doorbell) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		doorbell, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadVip returns the cached vip block and when it was stored. A miss
// returns (nil, zero, nil).
func (s *DoorStore) LoadVip(doorbell string) ([]byte, time.Time, error) {
	var payload, updated string
	err := s.db.QueryRow(`SELECT payload, updated_at FROM vip_cache WHERE doorbell = ?`, doorbell).
		Scan(&payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	at, _ := time.Parse(time.RFC3339, updated)
	return []byte(payload), at, nil
}

// Close releases the database.
func (s *DoorStore) Close() error {
	return s.db.Close()
}
