// Package snapshot implements the optional heap-snapshot hook (spec
// §4.5/§6.5's "a collaborator may attach a heap-snapshot sink"): it
// records point-in-time heap.Stats samples plus an optional raw CBOR
// snapshot blob, and persists the history in a modernc.org/sqlite
// database, grounded on the teacher's own sqlite dependency (carried but
// unwired in chazu-maggie's go.mod) the way the teacher's manifest
// package persists parsed state to disk rather than keeping it only
// in-memory.
package snapshot

import (
	"database/sql"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/ashlang/jsvmcore/internal/heap"
)

// Store is a persisted history of heap-snapshot samples, backed by a
// single-file sqlite database (modernc.org/sqlite's pure-Go CGO-free
// driver, matching the driver mode the teacher's go.mod pins).
type Store struct {
	db *sql.DB
}

// Open creates or reopens the sqlite-backed store at path. path may be
// ":memory:" for a process-local, non-persisted store (e.g. in tests).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	taken_at_nanos  INTEGER NOT NULL,
	young_collects  INTEGER NOT NULL,
	full_collects   INTEGER NOT NULL,
	slots_promoted  INTEGER NOT NULL,
	segments_made   INTEGER NOT NULL,
	segments_freed  INTEGER NOT NULL,
	blob            BLOB
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record is one sampled heap.Stats snapshot, with an optional opaque
// payload (a full heap dump, when the caller chooses to capture one).
type Record struct {
	TakenAtNanos int64      `cbor:"1,keyasint"`
	Stats        heap.Stats `cbor:"2,keyasint"`
	Blob         []byte     `cbor:"3,keyasint,omitempty"`
}

// Save appends rec to the store.
func (s *Store) Save(rec Record) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots
		 (taken_at_nanos, young_collects, full_collects, slots_promoted, segments_made, segments_freed, blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.TakenAtNanos,
		rec.Stats.YoungCollections,
		rec.Stats.FullCollections,
		rec.Stats.BytesPromoted,
		rec.Stats.SegmentsCreated,
		rec.Stats.SegmentsReleased,
		rec.Blob,
	)
	if err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// History returns every saved Record in ascending taken-at order.
func (s *Store) History() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT taken_at_nanos, young_collects, full_collects, slots_promoted, segments_made, segments_freed, blob
		 FROM snapshots ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.TakenAtNanos,
			&r.Stats.YoungCollections,
			&r.Stats.FullCollections,
			&r.Stats.BytesPromoted,
			&r.Stats.SegmentsCreated,
			&r.Stats.SegmentsReleased,
			&r.Blob,
		); err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EncodeBlob serializes an arbitrary heap-walk payload (e.g. a captured
// cell graph) to CBOR for storage in Record.Blob, reusing the same wire
// format internal/bcprovider uses for compiled modules so both the
// module loader and the snapshot hook share one decoder family.
func EncodeBlob(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode blob: %w", err)
	}
	return data, nil
}

// DecodeBlob parses a blob previously produced by EncodeBlob into dst.
func DecodeBlob(data []byte, dst any) error {
	if err := cbor.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("snapshot: decode blob: %w", err)
	}
	return nil
}
