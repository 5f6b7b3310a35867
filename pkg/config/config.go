// Package config loads flowcanvas settings.
//
// Settings come from a TOML file, by default
// $XDG_CONFIG_HOME/flowcanvas/config.toml, with secrets and deployment
// specifics overridable by FLOWCANVAS_* environment variables. A missing
// file is not an error; every field has a default.
//
//	[layout]
//	engine = "layered"
//	direction = "RIGHT"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "postgres"
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/store"
)

// AppName names the config and cache directories.
const AppName = "flowcanvas"

// Backends.
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

var (
	cacheBackends = []string{BackendNone, BackendFile, BackendRedis}
	storeBackends = []string{BackendMemory, BackendFile, BackendMongo, BackendPostgres}
)

// Config is the complete configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	// Catalogs are extra node catalog files registered after the built-in
	// types.
	Catalogs []string `toml:"catalogs"`
}

// LayoutConfig holds auto-layout defaults.
type LayoutConfig struct {
	Engine       string        `toml:"engine"`
	Direction    string        `toml:"direction"`
	LayerSpacing float64       `toml:"layer_spacing"`
	NodeSpacing  float64       `toml:"node_spacing"`
	GridSize     float64       `toml:"grid_size"`
	Timeout      time.Duration `toml:"timeout"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// StoreConfig selects where graphs are persisted.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	PostgresDSN     string `toml:"postgres_dsn"`
}

// ServerConfig configures `flowcanvas serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	lo := layout.DefaultOptions()
	return Config{
		Layout: LayoutConfig{
			Engine:       string(lo.Engine),
			Direction:    string(lo.Direction),
			LayerSpacing: lo.LayerSpacing,
			NodeSpacing:  lo.NodeSpacing,
			GridSize:     lo.GridSize,
			Timeout:      lo.Timeout,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Prefix:  AppName + ":",
		},
		Store: StoreConfig{
			Backend:         BackendFile,
			MongoDatabase:   AppName,
			MongoCollection: "graphs",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
	}
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the configuration directory ($XDG_CONFIG_HOME/flowcanvas or
// ~/.config/flowcanvas).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Path returns the default config file path. FLOWCANVAS_CONFIG overrides it.
func Path() (string, error) {
	if p := os.Getenv("FLOWCANVAS_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the default file cache directory ($XDG_CACHE_HOME/flowcanvas
// or ~/.cache/flowcanvas).
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DataDir returns the default file store directory
// ($XDG_DATA_HOME/flowcanvas/graphs or ~/.local/share/flowcanvas/graphs).
func DataDir() (string, error) {
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		return filepath.Join(home, AppName, "graphs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName, "graphs"), nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the file at path over the defaults, then applies the
// environment. An empty path means [Path]. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer f.Close()
		if cfg, err = Decode(f); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode reads TOML over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FLOWCANVAS_* variables read with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	str("FLOWCANVAS_CACHE_BACKEND", &c.Cache.Backend)
	str("FLOWCANVAS_REDIS_ADDR", &c.Cache.RedisAddr)
	str("FLOWCANVAS_REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("FLOWCANVAS_STORE_BACKEND", &c.Store.Backend)
	str("FLOWCANVAS_MONGO_URI", &c.Store.MongoURI)
	str("FLOWCANVAS_POSTGRES_DSN", &c.Store.PostgresDSN)
	str("FLOWCANVAS_ADDR", &c.Server.Addr)
	if v := getenv("FLOWCANVAS_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FLOWCANVAS_REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = db
	}
	return nil
}

// Validate checks backend names and the layout settings.
func (c *Config) Validate() error {
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("cache.backend %q (want one of %v)", c.Cache.Backend, cacheBackends)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required for the redis backend")
	}
	if !slices.Contains(storeBackends, c.Store.Backend) {
		return fmt.Errorf("store.backend %q (want one of %v)", c.Store.Backend, storeBackends)
	}
	if c.Store.Backend == BackendMongo && c.Store.MongoURI == "" {
		return errors.New("store.mongo_uri is required for the mongo backend")
	}
	if c.Store.Backend == BackendPostgres && c.Store.PostgresDSN == "" {
		return errors.New("store.postgres_dsn is required for the postgres backend")
	}
	if _, err := c.LayoutOptions(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Cache.RedisPassword = mask(c.Cache.RedisPassword)
	c.Store.MongoURI = mask(c.Store.MongoURI)
	c.Store.PostgresDSN = mask(c.Store.PostgresDSN)
	c.Catalogs = slices.Clone(c.Catalogs)
	return c
}

// =============================================================================
// Components
// =============================================================================

// LayoutOptions returns the layout settings as layout options.
func (c *Config) LayoutOptions() (layout.Options, error) {
	engine, err := layout.ParseEngine(c.Layout.Engine)
	if err != nil {
		return layout.Options{}, err
	}
	dir, err := layout.ParseDirection(c.Layout.Direction)
	if err != nil {
		return layout.Options{}, err
	}
	opts := layout.Options{
		Engine:       engine,
		Direction:    dir,
		LayerSpacing: c.Layout.LayerSpacing,
		NodeSpacing:  c.Layout.NodeSpacing,
		GridSize:     c.Layout.GridSize,
		Timeout:      c.Layout.Timeout,
	}.WithDefaults()
	return opts, opts.Validate()
}

// OpenCache opens the configured cache.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// OpenStore opens the configured graph store.
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Store.Backend {
	case BackendMemory:
		return store.NewMemory(), nil
	case BackendMongo:
		ms, err := store.NewMongo(ctx, store.MongoOptions{
			URI:        c.Store.MongoURI,
			Database:   c.Store.MongoDatabase,
			Collection: c.Store.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return ms, nil
	case BackendPostgres:
		ps, err := store.NewPostgres(ctx, c.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return ps, nil
	default:
		dir := c.Store.Dir
		if dir == "" {
			d, err := DataDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fst, err := store.NewFile(dir)
		if err != nil {
			return nil, err
		}
		return fst, nil
	}
}
