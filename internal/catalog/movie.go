// Package catalog provides a client for the TMDB movie catalog API.
package catalog

import (
	"fmt"
	"strings"
)

// DefaultImageBaseURL is the poster base used when none is configured.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is a single catalog entry as returned by search, discover and
// movie lookups.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

// Page is one page of catalog results.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// HasMore reports whether the catalog has pages after this one.
func (p *Page) HasMore() bool {
	return p != nil && p.Page < p.TotalPages
}

// SortKey is a discover ordering understood by the catalog.
type SortKey string

const (
	SortPopularity  SortKey = "popularity.desc"
	SortRating      SortKey = "vote_average.desc"
	SortReleaseDate SortKey = "release_date.desc"
)

// SortKeys lists the supported orderings in display order.
var SortKeys = []SortKey{SortPopularity, SortRating, SortReleaseDate}

// Label is the human-facing name of a sort key.
func (k SortKey) Label() string {
	switch k {
	case SortPopularity:
		return "Most Popular"
	case SortRating:
		return "Top Rated"
	case SortReleaseDate:
		return "Newest"
	default:
		return string(k)
	}
}

// Next returns the ordering after k, wrapping around.
func (k SortKey) Next() SortKey {
	for i, s := range SortKeys {
		if s == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortPopularity
}

// ParseSortKey accepts either the wire value or a short alias.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "popular", "popularity", string(SortPopularity):
		return SortPopularity, nil
	case "rated", "rating", "top", string(SortRating):
		return SortRating, nil
	case "newest", "new", "release", string(SortReleaseDate):
		return SortReleaseDate, nil
	}
	return "", fmt.Errorf("catalog: unknown sort order %q", s)
}

// PosterURL joins a poster path onto the image base. Empty paths yield "".
func PosterURL(imageBase, posterPath string) string {
	if posterPath == "" {
		return ""
	}
	if imageBase == "" {
		imageBase = DefaultImageBaseURL
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(posterPath, "/")
}
