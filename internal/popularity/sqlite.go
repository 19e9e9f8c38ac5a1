package popularity

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

// SQLiteStore keeps search terms in a local SQLite database.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	imageBase string
}

// OpenSQLite opens (creating if needed) the database at dbPath.
// ":memory:" gives a private in-memory database, used by tests.
func OpenSQLite(dbPath, imageBase string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// In-memory databases are per connection; pin one so every query sees it.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db, imageBase: imageBase}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_terms (
		id TEXT PRIMARY KEY,
		term TEXT NOT NULL UNIQUE,
		count INTEGER NOT NULL DEFAULT 0,
		movie_id INTEGER NOT NULL,
		poster_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_search_terms_count ON search_terms(count DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordSearch inserts term with count 1 or increments its counter.
// The movie id and poster are only written on insert.
func (s *SQLiteStore) RecordSearch(ctx context.Context, term string, movie catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_terms (id, term, count, movie_id, poster_url, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(term) DO UPDATE SET
			count = count + 1,
			updated_at = excluded.updated_at
	`, uuid.NewString(), term, movie.ID, catalog.PosterURL(s.imageBase, movie.PosterPath), now, now)
	if err != nil {
		return fmt.Errorf("popularity: record %q: %w", term, err)
	}
	return nil
}

// TopSearches returns up to limit terms, highest count first. Ties are
// broken by most recent use.
func (s *SQLiteStore) TopSearches(ctx context.Context, limit int) ([]SearchTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, term, count, movie_id, poster_url
		FROM search_terms
		ORDER BY count DESC, updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("popularity: query top searches: %w", err)
	}
	defer rows.Close()

	var terms []SearchTerm
	for rows.Next() {
		var t SearchTerm
		if err := rows.Scan(&t.ID, &t.Term, &t.Count, &t.MovieID, &t.PosterURL); err != nil {
			return nil, fmt.Errorf("popularity: scan: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}
