// Package audit persists the safety-relevant events spec §8's invariants
// require to be observable after the fact: redaction events, blocklist
// refusals, and per-call token usage. It is the domain home for
// modernc.org/sqlite once the teacher's plugin-marketplace and
// session-chat storage concepts (which owned that dependency in
// hkdb-otui) are dropped — see DESIGN.md.
//
// Grounded on hkdb-otui/storage/plugins.go: sql.Open("sqlite", path),
// CREATE TABLE IF NOT EXISTS plus an idempotent columnExists-guarded
// ALTER TABLE migration step, adapted from a plugin-install ledger to a
// safety-event ledger.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/omni-glass/omniglass/internal/safety"
)

// Store is the audit ledger's handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the audit database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "audit.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("audit: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("audit: pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS redaction_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		label TEXT NOT NULL,
		match_count INTEGER NOT NULL,
		occurred_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_redaction_events_session ON redaction_events(session_id);

	CREATE TABLE IF NOT EXISTS blocklist_hits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		command TEXT NOT NULL,
		reason TEXT NOT NULL,
		occurred_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blocklist_hits_session ON blocklist_hits(session_id);

	CREATE TABLE IF NOT EXISTS token_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		phase TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		occurred_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.migrateSchema()
}

// migrateSchema adds columns to a pre-existing database created before a
// given field was tracked. Idempotent: a fresh database already has the
// column from the CREATE TABLE above, so columnExists short-circuits.
func (s *Store) migrateSchema() error {
	hasProvider, err := s.columnExists("token_usage", "provider_label")
	if err != nil {
		return fmt.Errorf("checking for provider_label column: %w", err)
	}
	if !hasProvider {
		if _, err := s.db.Exec(`ALTER TABLE token_usage ADD COLUMN provider_label TEXT DEFAULT ''`); err != nil {
			return fmt.Errorf("adding provider_label column: %w", err)
		}
	}
	return nil
}

func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &primaryKey); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRedaction logs one row per matched label, so a query for "how
// often has this label fired" needs no JSON parsing. counts is typically
// a safety.RedactionResult.Counts straight off the wire.
func (s *Store) RecordRedaction(ctx context.Context, sessionID string, counts map[safety.Label]int) error {
	for label, n := range counts {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO redaction_events (session_id, label, match_count, occurred_at) VALUES (?, ?, ?, ?)`,
			sessionID, string(label), n, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("audit: recording redaction event: %w", err)
		}
	}
	return nil
}

// RecordBlocklistHit logs a refused command with its human reason (spec
// §8: "a log entry records the blocklist reason").
func (s *Store) RecordBlocklistHit(ctx context.Context, sessionID, command, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocklist_hits (session_id, command, reason, occurred_at) VALUES (?, ?, ?, ?)`,
		sessionID, command, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("audit: recording blocklist hit: %w", err)
	}
	return nil
}

// RecordTokenUsage logs one classify or execute call's token accounting.
func (s *Store) RecordTokenUsage(ctx context.Context, sessionID, phase string, inputTokens, outputTokens int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO token_usage (session_id, phase, input_tokens, output_tokens, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, phase, inputTokens, outputTokens, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("audit: recording token usage: %w", err)
	}
	return nil
}

// BlocklistHit is one row of the blocklist_hits table.
type BlocklistHit struct {
	SessionID  string
	Command    string
	Reason     string
	OccurredAt time.Time
}

// RecentBlocklistHits returns the most recent blocklist refusals, newest
// first, for a plugin-approval or diagnostics view.
func (s *Store) RecentBlocklistHits(ctx context.Context, limit int) ([]BlocklistHit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, command, reason, occurred_at FROM blocklist_hits ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: querying blocklist hits: %w", err)
	}
	defer rows.Close()

	var out []BlocklistHit
	for rows.Next() {
		var h BlocklistHit
		if err := rows.Scan(&h.SessionID, &h.Command, &h.Reason, &h.OccurredAt); err != nil {
			return nil, fmt.Errorf("audit: scanning blocklist hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
