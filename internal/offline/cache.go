// Package offline keeps a named on-disk cache of HTTP responses and serves
// them when the network cannot.
//
// The cache only holds URLs Install put there. Later successful fetches of
// those URLs refresh the stored copy; other responses are never added.
// Nothing is versioned or evicted and Clear empties the cache.
package offline

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/peterbourgon/diskv/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultName is the cache directory name under the configured root.
const DefaultName = "movie-app-cache"

// maxConcurrentInstalls limits parallel fetches during Install.
const maxConcurrentInstalls = 4

// Cache is a network-first http.RoundTripper with an on-disk fallback.
type Cache struct {
	d      *diskv.Diskv
	next   http.RoundTripper
	logger *log.Logger
}

// Open creates a cache named name under dir. Requests that miss go to next,
// or http.DefaultTransport when next is nil.
func Open(dir, name string, next http.RoundTripper, logger *log.Logger) *Cache {
	if name == "" {
		name = DefaultName
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{
		d: diskv.New(diskv.Options{
			BasePath:     filepath.Join(dir, name),
			Transform:    blockTransform,
			CacheSizeMax: 4 << 20,
		}),
		next:   next,
		logger: logger,
	}
}

// blockTransform spreads keys over two levels of directories.
func blockTransform(key string) []string {
	if len(key) < 4 {
		return []string{}
	}
	return []string{key[0:2], key[2:4]}
}

// Key is the cache key for a request URL.
func Key(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// RoundTrip sends GET requests to the network and refreshes the cached copy
// on success. When the network fails, or answers with a server error, a
// cached copy is served instead if one exists.
func (c *Cache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.next.RoundTrip(req)
	}

	key := Key(req.URL.String())
	resp, err := c.next.RoundTrip(req)
	switch {
	case err != nil:
		if req.Context().Err() != nil || !c.d.Has(key) {
			return nil, err
		}
		c.logger.Debug("Network failed, trying cache", "url", req.URL.Redacted(), "error", err)
	case resp.StatusCode >= 500 && c.d.Has(key):
		resp.Body.Close()
		c.logger.Debug("Server error, trying cache", "url", req.URL.Redacted(), "status", resp.StatusCode)
	default:
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 && c.d.Has(key) {
			if serr := c.store(key, resp); serr != nil {
				c.logger.Warn("Could not refresh cache entry", "url", req.URL.Redacted(), "error", serr)
			}
		}
		return resp, nil
	}

	cached, lerr := c.load(key, req)
	if lerr != nil {
		c.logger.Warn("Unreadable cache entry", "url", req.URL.Redacted(), "error", lerr)
		if err == nil {
			err = fmt.Errorf("offline: status %d", resp.StatusCode)
		}
		return nil, err
	}
	c.logger.Debug("Served from cache", "url", req.URL.Redacted())
	return cached, nil
}

// Has reports whether a response for rawURL is cached.
func (c *Cache) Has(rawURL string) bool {
	return c.d.Has(Key(rawURL))
}

// Install fetches every request over the network and stores the responses.
// It fails as a whole if any request fails or returns a
// non-2xx status; entries fetched before the failure are kept.
func (c *Cache) Install(ctx context.Context, reqs []*http.Request) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInstalls)

	for _, req := range reqs {
		req := req.WithContext(ctx)
		g.Go(func() error {
			return c.installOne(req)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.Info("Offline cache installed", "entries", len(reqs))
	return nil
}

func (c *Cache) installOne(req *http.Request) error {
	resp, err := c.next.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("offline: fetch %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("offline: fetch %s: status %d", req.URL.Redacted(), resp.StatusCode)
	}

	if err := c.store(Key(req.URL.String()), resp); err != nil {
		return fmt.Errorf("offline: %s: %w", req.URL.Redacted(), err)
	}
	return nil
}

// store writes resp under key. DumpResponse leaves resp.Body readable.
func (c *Cache) store(key string, resp *http.Response) error {
	raw, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	if err := c.d.Write(key, raw); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (c *Cache) load(key string, req *http.Request) (*http.Response, error) {
	raw, err := c.d.Read(key)
	if err != nil {
		return nil, err
	}
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), req)
	if err != nil {
		return nil, fmt.Errorf("offline: parse cached response: %w", err)
	}
	return resp, nil
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	if err := c.d.EraseAll(); err != nil {
		return fmt.Errorf("offline: clear: %w", err)
	}
	return nil
}
