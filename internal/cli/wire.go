package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/moviefinder/internal/catalog"
	"github.com/abelbrown/moviefinder/internal/config"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/offline"
	"github.com/abelbrown/moviefinder/internal/popularity"
)

// runtime holds the clients built from configuration.
type runtime struct {
	catalog *catalog.Client
	cache   *offline.Cache // nil when offline support is disabled
	store   popularity.Store
	tracker *popularity.Tracker
	sort    catalog.SortKey
	logger  *log.Logger

	closers []func() error
}

func setup(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{logger: logging.Logger}

	sort, err := catalog.ParseSortKey(cfg.UI.Sort)
	if err != nil {
		return nil, err
	}
	rt.sort = sort

	var transport http.RoundTripper
	if cfg.Offline.Enabled {
		rt.cache = offline.Open(cfg.Offline.Dir, offline.DefaultName, nil, logging.WithPrefix("offline"))
		transport = rt.cache
	}

	rt.catalog = catalog.New(catalog.Options{
		BaseURL:      cfg.Catalog.BaseURL,
		ImageBaseURL: cfg.Catalog.ImageBaseURL,
		Token:        cfg.Catalog.Token,
		Timeout:      cfg.Catalog.Timeout,
		RateLimit:    cfg.Catalog.RateLimit,
		Transport:    transport,
	})

	store, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}
	rt.store = store
	if store != nil {
		rt.tracker = popularity.NewTracker(store, logging.WithPrefix("popularity"))
	}
	return rt, nil
}

// openStore builds the configured popularity backend. A nil store means
// popularity tracking is off.
func openStore(cfg *config.Config) (popularity.Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendAppwrite:
		return popularity.NewAppwriteStore(popularity.AppwriteOptions{
			Endpoint:     cfg.Store.Endpoint,
			Project:      cfg.Store.Project,
			APIKey:       cfg.Store.APIKey,
			Database:     cfg.Store.Database,
			Collection:   cfg.Store.Collection,
			ImageBaseURL: cfg.Catalog.ImageBaseURL,
		}), nil, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
		s, err := popularity.OpenSQLite(cfg.Store.Path, cfg.Catalog.ImageBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open popularity store: %w", err)
		}
		return s, s.Close, nil

	case config.BackendNone:
		return nil, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// shellRequests are the responses the offline cache pre-installs: the first
// discover page for every sort order.
func (rt *runtime) shellRequests(ctx context.Context) ([]*http.Request, error) {
	reqs := make([]*http.Request, 0, len(catalog.SortKeys))
	for _, k := range catalog.SortKeys {
		req, err := rt.catalog.DiscoverRequest(ctx, k, 1)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// precache installs the shell entries. Unless force is set, it does nothing
// when the default view is already cached.
func (rt *runtime) precache(ctx context.Context, force bool) error {
	if rt.cache == nil {
		return fmt.Errorf("offline cache is disabled (offline.enabled = false)")
	}
	reqs, err := rt.shellRequests(ctx)
	if err != nil {
		return err
	}
	if !force {
		for _, r := range reqs {
			if r.URL.Query().Get("sort_by") == string(rt.sort) && rt.cache.Has(r.URL.String()) {
				return nil
			}
		}
	}
	if err := rt.cache.Install(ctx, reqs); err != nil {
		rt.logger.Warn("offline install failed", "error", err)
		return err
	}
	return nil
}

func (rt *runtime) Close() {
	for _, c := range rt.closers {
		if err := c(); err != nil {
			rt.logger.Warn("close failed", "error", err)
		}
	}
}
