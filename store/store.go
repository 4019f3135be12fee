// Package store persists the small amount of state that must survive map
// changes and restarts: who has been seen on the server, and free-form
// namespaced values plugin code wants kept.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup that matched nothing.
var ErrNotFound = errors.New("store: not found")

// Store wraps one SQLite file. A single file backs both tables so the
// ledger and plugin values share the same durability settings.
type Store struct {
	db *sql.DB
}

// Open opens the store at path, creating the schema when missing. The
// connection runs in WAL mode with a busy timeout so the occasional
// off-thread reader cannot wedge the server thread.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS seen_players (
	auth_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL,
	first_seen INTEGER NOT NULL,
	last_seen  INTEGER NOT NULL,
	visits     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS plugin_values (
	ns TEXT NOT NULL,
	k  TEXT NOT NULL,
	v  TEXT NOT NULL,
	PRIMARY KEY (ns, k)
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply store schema: %w", err)
	}
	return nil
}

// toMillis normalizes timestamps to millisecond precision for storage.
func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

// fromMillis restores millisecond precision and UTC normalization.
func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// SeenPlayer is one ledger row.
type SeenPlayer struct {
	AuthID    string
	Name      string
	Address   string
	FirstSeen time.Time
	LastSeen  time.Time
	Visits    int64
}

// RecordVisit upserts a ledger row for a player entering the game: new
// players get a first-seen stamp, returning ones keep it and bump the
// visit count. Name and address always track the latest session.
func (s *Store) RecordVisit(authID, name, address string, at time.Time) error {
	const q = `
INSERT INTO seen_players (auth_id, name, address, first_seen, last_seen, visits)
VALUES (?, ?, ?, ?, ?, 1)
ON CONFLICT(auth_id) DO UPDATE SET
	name = excluded.name,
	address = excluded.address,
	last_seen = excluded.last_seen,
	visits = seen_players.visits + 1;`
	ms := toMillis(at)
	if _, err := s.db.Exec(q, authID, name, address, ms, ms); err != nil {
		return fmt.Errorf("record visit %s: %w", authID, err)
	}
	return nil
}

// Touch refreshes a player's last-seen stamp without counting a visit.
func (s *Store) Touch(authID string, at time.Time) error {
	const q = `UPDATE seen_players SET last_seen = ? WHERE auth_id = ?;`
	if _, err := s.db.Exec(q, toMillis(at), authID); err != nil {
		return fmt.Errorf("touch %s: %w", authID, err)
	}
	return nil
}

// Seen looks up one ledger row by auth id.
func (s *Store) Seen(authID string) (SeenPlayer, error) {
	const q = `
SELECT auth_id, name, address, first_seen, last_seen, visits
FROM seen_players WHERE auth_id = ?;`
	var p SeenPlayer
	var first, last int64
	err := s.db.QueryRow(q, authID).Scan(&p.AuthID, &p.Name, &p.Address, &first, &last, &p.Visits)
	if errors.Is(err, sql.ErrNoRows) {
		return SeenPlayer{}, ErrNotFound
	}
	if err != nil {
		return SeenPlayer{}, fmt.Errorf("lookup %s: %w", authID, err)
	}
	p.FirstSeen = fromMillis(first)
	p.LastSeen = fromMillis(last)
	return p, nil
}

// TopVisitors returns up to limit ledger rows, most visits first, ties
// broken by recency.
func (s *Store) TopVisitors(limit int) ([]SeenPlayer, error) {
	const q = `
SELECT auth_id, name, address, first_seen, last_seen, visits
FROM seen_players
ORDER BY visits DESC, last_seen DESC
LIMIT ?;`
	rows, err := s.db.Query(q, limit)
	if err != nil {
		return nil, fmt.Errorf("top visitors: %w", err)
	}
	defer rows.Close()

	var out []SeenPlayer
	for rows.Next() {
		var p SeenPlayer
		var first, last int64
		if err := rows.Scan(&p.AuthID, &p.Name, &p.Address, &first, &last, &p.Visits); err != nil {
			return nil, fmt.Errorf("top visitors scan: %w", err)
		}
		p.FirstSeen = fromMillis(first)
		p.LastSeen = fromMillis(last)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetValue stores one namespaced value, replacing any previous one.
func (s *Store) SetValue(ns, key, value string) error {
	const q = `
INSERT INTO plugin_values (ns, k, v) VALUES (?, ?, ?)
ON CONFLICT(ns, k) DO UPDATE SET v = excluded.v;`
	if _, err := s.db.Exec(q, ns, key, value); err != nil {
		return fmt.Errorf("set %s/%s: %w", ns, key, err)
	}
	return nil
}

// GetValue fetches one namespaced value.
func (s *Store) GetValue(ns, key string) (string, error) {
	const q = `SELECT v FROM plugin_values WHERE ns = ? AND k = ?;`
	var v string
	err := s.db.QueryRow(q, ns, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", ns, key, err)
	}
	return v, nil
}

// DeleteValue removes one namespaced value. Deleting a missing key is not
// an error.
func (s *Store) DeleteValue(ns, key string) error {
	const q = `DELETE FROM plugin_values WHERE ns = ? AND k = ?;`
	if _, err := s.db.Exec(q, ns, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// Values returns every key/value pair under a namespace.
func (s *Store) Values(ns string) (map[string]string, error) {
	const q = `SELECT k, v FROM plugin_values WHERE ns = ?;`
	rows, err := s.db.Query(q, ns)
	if err != nil {
		return nil, fmt.Errorf("values %s: %w", ns, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("values %s scan: %w", ns, err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
