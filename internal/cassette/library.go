package cassette

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cassettes (
	name       TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interactions (
	cassette    TEXT NOT NULL REFERENCES cassettes(name),
	seq         INTEGER NOT NULL,
	url         TEXT NOT NULL,
	body        TEXT NOT NULL,
	recorded_at TEXT,
	PRIMARY KEY (cassette, seq),
	UNIQUE (cassette, url)
);
`

// nowUTC returns the current UTC time as an RFC 3339 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Summary describes a stored cassette without its bodies.
type Summary struct {
	Name         string
	Interactions int
	UpdatedAt    time.Time
}

// Library stores named cassettes in SQLite.
type Library struct {
	db *sql.DB
}

// OpenLibrary opens or creates a library at path and runs migrations.
// Creates the parent directory if it does not exist.
func OpenLibrary(path string) (*Library, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	l := &Library{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Library) migrate() error {
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var v int
	err := l.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := l.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database.
func (l *Library) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Put stores c, replacing any cassette with the same name.
func (l *Library) Put(ctx context.Context, c *Cassette) error {
	if c.Name == "" {
		return fmt.Errorf("put cassette: empty name")
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := nowUTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cassettes(name, created_at, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`,
		c.Name, now, now,
	); err != nil {
		return fmt.Errorf("put cassette %q: %w", c.Name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM interactions WHERE cassette = ?", c.Name); err != nil {
		return fmt.Errorf("clear interactions: %w", err)
	}
	for i, in := range c.Interactions {
		var recorded sql.NullString
		if !in.RecordedAt.IsZero() {
			recorded = sql.NullString{String: in.RecordedAt.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO interactions(cassette, seq, url, body, recorded_at) VALUES(?, ?, ?, ?, ?)",
			c.Name, i, in.URL, in.Body, recorded,
		); err != nil {
			return fmt.Errorf("insert interaction %q: %w", in.URL, err)
		}
	}
	return tx.Commit()
}

// Get loads the cassette called name, or returns ErrNotFound.
func (l *Library) Get(ctx context.Context, name string) (*Cassette, error) {
	var exists int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cassettes WHERE name = ?", name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("get cassette %q: %w", name, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	rows, err := l.db.QueryContext(ctx,
		"SELECT url, body, recorded_at FROM interactions WHERE cassette = ? ORDER BY seq", name)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	c := &Cassette{Name: name}
	for rows.Next() {
		var (
			in       Interaction
			recorded sql.NullString
		)
		if err := rows.Scan(&in.URL, &in.Body, &recorded); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if recorded.Valid {
			in.RecordedAt, _ = time.Parse(time.RFC3339, recorded.String)
		}
		c.Interactions = append(c.Interactions, in)
	}
	return c, rows.Err()
}

// List returns summaries of all cassettes ordered by name.
func (l *Library) List(ctx context.Context) ([]Summary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT c.name, c.updated_at, COUNT(i.url)
		FROM cassettes c LEFT JOIN interactions i ON i.cassette = c.name
		GROUP BY c.name ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list cassettes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s       Summary
			updated string
		)
		if err := rows.Scan(&s.Name, &updated, &s.Interactions); err != nil {
			return nil, fmt.Errorf("scan cassette: %w", err)
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the cassette called name, or returns ErrNotFound.
func (l *Library) Delete(ctx context.Context, name string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM interactions WHERE cassette = ?", name); err != nil {
		return fmt.Errorf("delete interactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM cassettes WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete cassette %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return tx.Commit()
}
