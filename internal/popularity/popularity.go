// Package popularity counts how often search terms are used and reports the
// most popular ones for the trending rail.
package popularity

import (
	"context"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

// DefaultTrendingLimit is how many terms the trending rail shows.
const DefaultTrendingLimit = 12

// SearchTerm is the stored record for one search term.
type SearchTerm struct {
	ID        string `json:"$id,omitempty"`
	Term      string `json:"searchTerm"`
	Count     int    `json:"count"`
	MovieID   int    `json:"movie_id"`
	PosterURL string `json:"poster_url"`
}

// Store is a backend holding search term records.
// Implementations return errors; Tracker decides what to do with them.
type Store interface {
	// RecordSearch increments the counter for term, creating the record
	// with count 1 and the movie's id and poster on first use.
	RecordSearch(ctx context.Context, term string, movie catalog.Movie) error
	// TopSearches returns up to limit records ordered by count descending.
	TopSearches(ctx context.Context, limit int) ([]SearchTerm, error)
}

// Tracker applies the failure policy on top of a Store: errors are logged
// and swallowed so an unavailable store never blocks searching.
// A Tracker with a nil Store does nothing.
type Tracker struct {
	store  Store
	logger *log.Logger
}

// NewTracker wraps store. A nil logger discards output.
func NewTracker(store Store, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Tracker{store: store, logger: logger}
}

// Enabled reports whether a backing store is configured.
func (t *Tracker) Enabled() bool {
	return t != nil && t.store != nil
}

// RecordSearch records one search for term. Failures are logged only.
func (t *Tracker) RecordSearch(ctx context.Context, term string, movie catalog.Movie) {
	if !t.Enabled() || term == "" {
		return
	}
	if err := t.store.RecordSearch(ctx, term, movie); err != nil {
		t.logger.Error("Error updating search count", "term", term, "error", err)
		return
	}
	t.logger.Debug("Recorded search", "term", term, "movie_id", movie.ID)
}

// TopSearches returns at most limit records with non-increasing counts.
// Failures are logged and yield an empty slice.
func (t *Tracker) TopSearches(ctx context.Context, limit int) []SearchTerm {
	if !t.Enabled() || limit <= 0 {
		return []SearchTerm{}
	}
	terms, err := t.store.TopSearches(ctx, limit)
	if err != nil {
		t.logger.Error("Error fetching trending searches", "error", err)
		return []SearchTerm{}
	}

	// Backends order server-side; re-sort so the contract holds regardless.
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Count > terms[j].Count })
	if len(terms) > limit {
		terms = terms[:limit]
	}
	if terms == nil {
		terms = []SearchTerm{}
	}
	return terms
}
