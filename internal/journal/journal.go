// Package journal records which files a rule has already migrated, so a
// rerun over a large tree only touches files that changed since.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one migrated file.
type Entry struct {
	Path       string
	Rule       string
	Hash       string
	MigratedAt time.Time
}

// Journal is a sqlite-backed ledger keyed by (path, rule).
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Runner workers share one connection; sqlite serialises writers anyway.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS migrations (
		path TEXT NOT NULL,
		rule TEXT NOT NULL,
		hash TEXT NOT NULL,
		migrated_at INTEGER NOT NULL,
		PRIMARY KEY (path, rule)
	) WITHOUT ROWID;
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Hash returns the content digest stored in the journal.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Done reports whether path was migrated by rule and still has the content
// it had afterwards.
func (j *Journal) Done(ctx context.Context, path, rule string, content []byte) (bool, error) {
	var hash string
	err := j.db.QueryRowContext(ctx,
		`SELECT hash FROM migrations WHERE path = ? AND rule = ?`, path, rule).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query journal: %w", err)
	}
	return hash == Hash(content), nil
}

// Record marks path as migrated by rule, with content as its result.
func (j *Journal) Record(ctx context.Context, path, rule string, content []byte) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO migrations (path, rule, hash, migrated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (path, rule) DO UPDATE SET hash = excluded.hash, migrated_at = excluded.migrated_at
	`, path, rule, Hash(content), j.now().Unix())
	if err != nil {
		return fmt.Errorf("record %s: %w", path, err)
	}
	return nil
}

// Forget drops every entry for rule. An empty rule clears the journal.
func (j *Journal) Forget(ctx context.Context, rule string) error {
	var err error
	if rule == "" {
		_, err = j.db.ExecContext(ctx, `DELETE FROM migrations`)
	} else {
		_, err = j.db.ExecContext(ctx, `DELETE FROM migrations WHERE rule = ?`, rule)
	}
	return err
}

// Entries lists the journal ordered by rule, then path.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT path, rule, hash, migrated_at FROM migrations ORDER BY rule, path`)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.Path, &e.Rule, &e.Hash, &ts); err != nil {
			return nil, err
		}
		e.MigratedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
