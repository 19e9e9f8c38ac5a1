package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(Options{BaseURL: server.URL, Token: "test-token", RateLimit: 1000})
}

func writePage(w http.ResponseWriter, page, totalPages int, movies ...Movie) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Page{Page: page, TotalPages: totalPages, TotalResults: len(movies), Results: movies})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "batman returns", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		writePage(w, 2, 3, Movie{ID: 42, Title: "Batman Returns", PosterPath: "/x.jpg", VoteAverage: 7.1, ReleaseDate: "1992-06-19"})
	})

	page, err := c.Search(context.Background(), "batman returns", 2)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 42, page.Results[0].ID)
	assert.Equal(t, "/x.jpg", page.Results[0].PosterPath)
	assert.True(t, page.HasMore())
}

func TestDiscover(t *testing.T) {
	for _, sort := range SortKeys {
		t.Run(string(sort), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/discover/movie", r.URL.Path)
				assert.Equal(t, string(sort), r.URL.Query().Get("sort_by"))
				assert.Equal(t, "1", r.URL.Query().Get("page"))
				assert.Empty(t, r.URL.Query().Get("query"))
				writePage(w, 1, 1)
			})

			page, err := c.Discover(context.Background(), sort, 1)
			require.NoError(t, err)
			assert.NotNil(t, page.Results)
			assert.False(t, page.HasMore())
		})
	}
}

func TestFetchDispatch(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writePage(w, 1, 1)
	})

	_, err := c.Fetch(context.Background(), "alien", SortRating, 1)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "   ", SortRating, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"/search/movie", "/discover/movie"}, paths)
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantPayload bool
	}{
		{"server error", http.StatusInternalServerError, `oops`, "Failed to fetch movies", false},
		{"unauthorized with status message", http.StatusUnauthorized, `{"success":false,"status_message":"Invalid API key"}`, "Invalid API key", false},
		{"string response flag", http.StatusOK, `{"Response":"false","Error":"Movie not found!"}`, "Movie not found!", true},
		{"bool response flag", http.StatusOK, `{"Response":false}`, "Failed to fetch movies", true},
		{"success false", http.StatusOK, `{"success":false,"status_message":"Resource not found"}`, "Resource not found", true},
		{"malformed body", http.StatusOK, `{"results":[`, "Failed to fetch movies", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Search(context.Background(), "x", 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFetchFailed))

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantMessage, fe.Message)
			assert.Equal(t, tt.wantPayload, fe.Payload)
		})
	}
}

func TestResponseTrueIsNotAFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Response":"True","page":1,"total_pages":1,"results":[{"id":1,"title":"A"}]}`)
	})

	page, err := c.Search(context.Background(), "a", 1)
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
}

func TestMovie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/42", r.URL.Path)
		json.NewEncoder(w).Encode(Movie{ID: 42, Title: "Batman", Overview: "Dark knight."})
	})

	m, err := c.Movie(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Batman", m.Title)
	assert.Equal(t, "Dark knight.", m.Overview)
}

func TestCancelledRequest(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writePage(w, 1, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "late", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, hits.Load())
}

func TestParseSortKey(t *testing.T) {
	cases := map[string]SortKey{
		"":                  SortPopularity,
		"popular":           SortPopularity,
		"vote_average.desc": SortRating,
		"Rated":             SortRating,
		"newest":            SortReleaseDate,
	}
	for in, want := range cases {
		got, err := ParseSortKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSortKey("alphabetical")
	assert.Error(t, err)
}

func TestSortKeyNextWraps(t *testing.T) {
	assert.Equal(t, SortRating, SortPopularity.Next())
	assert.Equal(t, SortReleaseDate, SortRating.Next())
	assert.Equal(t, SortPopularity, SortReleaseDate.Next())
}

func TestPosterURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/x.jpg", PosterURL("", "/x.jpg"))
	assert.Equal(t, "http://img/x.jpg", PosterURL("http://img/", "x.jpg"))
	assert.Empty(t, PosterURL("http://img", ""))
}
