// Package metadata is a persistent mircache.ExternalStore backed by
// sqlite: a local cache of (def_id) -> serialized IR body, so a driver run
// doesn't re-fetch a non-local function's MIR on every lookup across
// process restarts. It imports a driver for its side effect and drives
// everything else through database/sql, scaled down to the single table
// this cache needs.
package metadata

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"mirinterp/internal/ierrors"
	"mirinterp/internal/mir"
	"mirinterp/internal/types"
)

// Store is a sqlite-backed mircache.ExternalStore. One Store is shared by
// every Interpreter a driver run creates, through the single mircache.Cache
// they all load bodies from.
type Store struct {
	db *sql.DB
}

// Open connects to (and, if necessary, creates) a sqlite database at dsn
// and ensures its schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: opening %s: %w", dsn, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metadata: pinging %s: %w", dsn, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("metadata: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS mir_bodies (
	def_id BLOB NOT NULL PRIMARY KEY,
	body   BLOB NOT NULL
);
`

// Load implements mircache.ExternalStore: it looks up id's serialized body
// and decodes it. A miss reports Unsupported, the same "no MIR available"
// outcome the driver is meant to surface rather than treat as a crash
// would.
func (s *Store) Load(id types.DefID) (*mir.Body, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT body FROM mir_bodies WHERE def_id = ?`, defIDKey(id)).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ierrors.New(ierrors.Unsupported, "no cached MIR for def_id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("metadata: querying def_id %d: %w", id, err)
	}

	var body mir.Body
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&body); err != nil {
		return nil, fmt.Errorf("metadata: decoding body for def_id %d: %w", id, err)
	}
	return &body, nil
}

// Put stores body under id, replacing any earlier entry, so that it
// survives a process restart. mircache.Cache only reads through Load; it
// never calls Put, so bodies enter the table only through callers of Put.
func (s *Store) Put(id types.DefID, body *mir.Body) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("metadata: encoding body for def_id %d: %w", id, err)
	}
	_, err := s.db.Exec(
		`INSERT INTO mir_bodies (def_id, body) VALUES (?, ?)
		 ON CONFLICT(def_id) DO UPDATE SET body = excluded.body`,
		defIDKey(id), buf.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("metadata: storing def_id %d: %w", id, err)
	}
	return nil
}

func defIDKey(id types.DefID) []byte {
	return []byte(fmt.Sprintf("%020d", uint64(id)))
}
