package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTMDB answers search and discover with a single-movie page.
func fakeTMDB(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		title := "Popular Pick"
		if r.URL.Path == "/search/movie" {
			title = "Batman Returns"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page":          1,
			"total_pages":   1,
			"total_results": 1,
			"results": []map[string]any{{
				"id": 364, "title": title, "poster_path": "/b.jpg",
				"vote_average": 6.9, "release_date": "1992-06-19",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	homedir.DisableCache = true
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, ".local", "share"))
	t.Setenv("MOVIEFINDER_CATALOG_TOKEN", "tok")
	t.Setenv("MOVIEFINDER_CATALOG_BASE_URL", baseURL)
	t.Setenv("MOVIEFINDER_STORE_BACKEND", "sqlite")
	t.Setenv("MOVIEFINDER_STORE_PATH", filepath.Join(dir, "data", "movies.db"))
	t.Setenv("MOVIEFINDER_OFFLINE_DIR", filepath.Join(dir, "cache"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := executeRoot(context.Background(), root)
	return out.String(), err
}

func TestSearchRecordsAndTrendingLists(t *testing.T) {
	var hits atomic.Int32
	srv := fakeTMDB(t, &hits)
	setEnv(t, srv.URL)

	out, err := execute(t, "search", "batman")
	require.NoError(t, err)
	assert.Contains(t, out, "Batman Returns")
	assert.Contains(t, out, "6.9")
	assert.Contains(t, out, "1992")

	_, err = execute(t, "search", "batman")
	require.NoError(t, err)

	out, err = execute(t, "trending")
	require.NoError(t, err)
	assert.Contains(t, out, "batman")
	assert.Contains(t, out, "https://image.tmdb.org/t/p/w500/b.jpg")
	assert.Contains(t, out, "2")
}

func TestSearchWithoutQueryDiscovers(t *testing.T) {
	var hits atomic.Int32
	srv := fakeTMDB(t, &hits)
	setEnv(t, srv.URL)

	out, err := execute(t, "search", "--sort", "rated")
	require.NoError(t, err)
	assert.Contains(t, out, "Popular Pick")

	out, err = execute(t, "trending")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing searched yet.")
}

func TestSearchRequiresToken(t *testing.T) {
	var hits atomic.Int32
	srv := fakeTMDB(t, &hits)
	setEnv(t, srv.URL)
	t.Setenv("MOVIEFINDER_CATALOG_TOKEN", "")
	os.Unsetenv("MOVIEFINDER_CATALOG_TOKEN")
	t.Setenv("VITE_TMDB_API_KEY", "")
	os.Unsetenv("VITE_TMDB_API_KEY")

	_, err := execute(t, "search", "batman")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.token")
	assert.Zero(t, hits.Load())
}

func TestCacheInstallServesOffline(t *testing.T) {
	var hits atomic.Int32
	srv := fakeTMDB(t, &hits)
	setEnv(t, srv.URL)

	out, err := execute(t, "cache", "install")
	require.NoError(t, err)
	assert.Contains(t, out, "Offline cache installed")
	assert.EqualValues(t, 3, hits.Load(), "one request per sort order")

	srv.Close()

	out, err = execute(t, "search")
	require.NoError(t, err)
	assert.Contains(t, out, "Popular Pick")

	_, err = execute(t, "cache", "clear")
	require.NoError(t, err)

	_, err = execute(t, "search")
	assert.Error(t, err, "nothing cached and the server is gone")
}

func TestCachedDiscoverFollowsUpstream(t *testing.T) {
	var title atomic.Value
	title.Store("Popular Pick")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page": 1, "total_pages": 1, "total_results": 1,
			"results": []map[string]any{{"id": 1, "title": title.Load().(string)}},
		})
	}))
	t.Cleanup(srv.Close)
	setEnv(t, srv.URL)

	_, err := execute(t, "cache", "install")
	require.NoError(t, err)

	title.Store("New Release")
	out, err := execute(t, "search")
	require.NoError(t, err)
	assert.Contains(t, out, "New Release")
	assert.NotContains(t, out, "Popular Pick")

	srv.Close()
	out, err = execute(t, "search")
	require.NoError(t, err)
	assert.Contains(t, out, "New Release", "offline copy is the last online response")
}

func TestLogClosedWhenCommandFails(t *testing.T) {
	var hits atomic.Int32
	srv := fakeTMDB(t, &hits)
	dir := setEnv(t, srv.URL)
	logPath := filepath.Join(dir, "logs", "run.log")
	t.Setenv("MOVIEFINDER_LOG_PATH", logPath)
	t.Setenv("MOVIEFINDER_OFFLINE_ENABLED", "false")

	_, err := execute(t, "cache", "install")
	require.Error(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MovieFinder started")
	assert.Contains(t, string(data), "MovieFinder shutting down")
}

func TestConfigInit(t *testing.T) {
	dir := setEnv(t, "https://api.example.test/3")
	path := filepath.Join(dir, "conf.toml")

	out, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api.example.test")
	assert.NotContains(t, string(data), "tok\"")

	_, err = execute(t, "config", "init", "--path", path)
	assert.Error(t, err)

	_, err = execute(t, "config", "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestInstallWritesDesktopEntry(t *testing.T) {
	dir := setEnv(t, "https://api.example.test/3")

	out, err := execute(t, "install")
	require.NoError(t, err)
	assert.Contains(t, out, "installed")
	assert.FileExists(t, filepath.Join(dir, ".local", "share", "applications", "moviefinder.desktop"))

	out, err = execute(t, "install")
	require.NoError(t, err)
	assert.Contains(t, out, "Already installed")
}
