// Package config loads MovieFinder's settings from flags, environment,
// a TOML config file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendAppwrite = "appwrite"
	BackendSQLite   = "sqlite"
	BackendNone     = "none"
)

// Config is the full application configuration.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Store   StoreConfig   `mapstructure:"store"`
	Offline OfflineConfig `mapstructure:"offline"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
}

// CatalogConfig configures the movie catalog client.
type CatalogConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second
}

// StoreConfig selects and configures the popularity store.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	Endpoint   string `mapstructure:"endpoint"`
	Project    string `mapstructure:"project"`
	APIKey     string `mapstructure:"api_key"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	Path       string `mapstructure:"path"` // sqlite only
}

// OfflineConfig controls the on-disk response cache.
type OfflineConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// UIConfig holds TUI preferences.
type UIConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	TrendingLimit int           `mapstructure:"trending_limit"`
	Sort          string        `mapstructure:"sort"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// FileName is the config file base name; the extension is .toml.
const FileName = "moviefinder"

// legacyEnv maps config keys to their older VITE_-prefixed variable names.
var legacyEnv = map[string]string{
	"catalog.token":    "VITE_TMDB_API_KEY",
	"store.endpoint":   "VITE_APPWRITE_ENDPOINT",
	"store.project":    "VITE_APPWRITE_PROJECT_ID",
	"store.database":   "VITE_APPWRITE_DATABASE_ID",
	"store.collection": "VITE_APPWRITE_COLLECTION_ID",
}

// Dir returns the directory holding config and data, ~/.moviefinder.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".moviefinder"
	}
	return filepath.Join(home, ".moviefinder")
}

// Default returns the built-in defaults.
func Default() *Config {
	dir := Dir()
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Timeout:      15 * time.Second,
			RateLimit:    20,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(dir, "moviefinder.db"),
		},
		Offline: OfflineConfig{
			Enabled: true,
			Dir:     filepath.Join(dir, "cache"),
		},
		UI: UIConfig{
			Debounce:      1100 * time.Millisecond,
			TrendingLimit: 12,
			Sort:          "popularity.desc",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// New returns a viper instance with defaults, env bindings and config
// search paths set up. Callers may bind flags before calling Load.
func New(configFile string) *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.token", "")
	v.SetDefault("catalog.image_base_url", d.Catalog.ImageBaseURL)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)
	v.SetDefault("catalog.rate_limit", d.Catalog.RateLimit)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.project", "")
	v.SetDefault("store.api_key", "")
	v.SetDefault("store.database", "")
	v.SetDefault("store.collection", "")
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("offline.enabled", d.Offline.Enabled)
	v.SetDefault("offline.dir", d.Offline.Dir)
	v.SetDefault("ui.debounce", d.UI.Debounce)
	v.SetDefault("ui.trending_limit", d.UI.TrendingLimit)
	v.SetDefault("ui.sort", d.UI.Sort)
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", d.Log.Level)

	v.SetEnvPrefix("MOVIEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := "MOVIEFINDER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envName, legacy)
	}

	v.SetConfigType("toml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
		if xdg, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(xdg, "moviefinder"))
		}
	}
	return v
}

// Load reads the config file if one exists and decodes the result.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	for _, p := range []*string{&cfg.Store.Path, &cfg.Offline.Dir, &cfg.Log.Path} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("config: expand %q: %w", *p, err)
		}
		*p = expanded
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	return &cfg, nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Catalog.Token == "" {
		errs = append(errs, errors.New("catalog.token is required (MOVIEFINDER_CATALOG_TOKEN or VITE_TMDB_API_KEY)"))
	}
	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog.base_url is required"))
	}

	switch c.Store.Backend {
	case BackendAppwrite:
		required := []struct{ key, val string }{
			{"store.endpoint", c.Store.Endpoint},
			{"store.project", c.Store.Project},
			{"store.database", c.Store.Database},
			{"store.collection", c.Store.Collection},
		}
		for _, r := range required {
			if r.val == "" {
				errs = append(errs, fmt.Errorf("%s is required for the appwrite backend", r.key))
			}
		}
	case BackendSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite backend"))
		}
	case BackendNone:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of appwrite, sqlite, none", c.Store.Backend))
	}

	if c.UI.Debounce < 0 {
		errs = append(errs, errors.New("ui.debounce must not be negative"))
	}
	if c.UI.TrendingLimit < 0 {
		errs = append(errs, errors.New("ui.trending_limit must not be negative"))
	}
	if c.Offline.Enabled && c.Offline.Dir == "" {
		errs = append(errs, errors.New("offline.dir is required when offline.enabled is set"))
	}
	return errors.Join(errs...)
}

// WriteFile writes cfg as TOML to path, refusing to overwrite unless force.
// The catalog token and store key are omitted so they stay in the environment.
func WriteFile(cfg *Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists", path)
		}
	}

	data, err := toml.Marshal(fileView(cfg))
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// fileView renders durations as strings ("1.1s") so the file stays readable.
func fileView(cfg *Config) map[string]map[string]any {
	return map[string]map[string]any{
		"catalog": {
			"base_url":       cfg.Catalog.BaseURL,
			"image_base_url": cfg.Catalog.ImageBaseURL,
			"timeout":        cfg.Catalog.Timeout.String(),
			"rate_limit":     cfg.Catalog.RateLimit,
		},
		"store": {
			"backend":    cfg.Store.Backend,
			"endpoint":   cfg.Store.Endpoint,
			"project":    cfg.Store.Project,
			"database":   cfg.Store.Database,
			"collection": cfg.Store.Collection,
			"path":       cfg.Store.Path,
		},
		"offline": {
			"enabled": cfg.Offline.Enabled,
			"dir":     cfg.Offline.Dir,
		},
		"ui": {
			"debounce":       cfg.UI.Debounce.String(),
			"trending_limit": cfg.UI.TrendingLimit,
			"sort":           cfg.UI.Sort,
		},
		"log": {
			"path":  cfg.Log.Path,
			"level": cfg.Log.Level,
		},
	}
}

// DefaultFilePath is where `config init` writes.
func DefaultFilePath() string {
	return filepath.Join(Dir(), FileName+".toml")
}
