// Package ui provides the Bubble Tea TUI for MovieFinder.
package ui

import (
	"github.com/abelbrown/moviefinder/internal/catalog"
	"github.com/abelbrown/moviefinder/internal/install"
	"github.com/abelbrown/moviefinder/internal/popularity"
)

// request identifies one catalog fetch. Only the response to the active
// request may change what is displayed.
type request struct {
	id    uint64
	query string
	sort  catalog.SortKey
	page  int
}

// inputSettled fires once the search input has been quiet for the
// debounce period. Seq is compared with the current input sequence.
type inputSettled struct {
	Seq   int
	Value string
}

// MoviesLoaded is sent when a catalog fetch finishes.
type MoviesLoaded struct {
	req  request
	Page *catalog.Page
	Err  error
}

// TrendingLoaded is sent once with the most searched terms.
type TrendingLoaded struct {
	Terms []popularity.SearchTerm
}

// SearchRecorded is sent after a search was handed to the popularity store.
type SearchRecorded struct {
	Term string
}

// DetailLoaded carries the full record for a movie opened from the
// trending rail.
type DetailLoaded struct {
	ID    int
	Movie *catalog.Movie
	Err   error
}

// InstallAvailable is sent when the platform can install the app.
type InstallAvailable struct {
	Prompter install.Prompter
}

// InstallResolved is sent when an install prompt has been answered.
type InstallResolved struct {
	Outcome install.Outcome
	Err     error
}
