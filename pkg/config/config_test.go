package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/store"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	lo, err := cfg.LayoutOptions()
	if err != nil {
		t.Fatal(err)
	}
	def := layout.DefaultOptions()
	if lo.Engine != def.Engine || lo.Direction != def.Direction || lo.LayerSpacing != def.LayerSpacing || lo.Timeout != def.Timeout {
		t.Errorf("layout options = %+v", lo)
	}
}

func TestDecode(t *testing.T) {
	doc := `
catalogs = ["extra.toml"]

[layout]
engine = "graphviz"
direction = "down"
timeout = "2s"

[server]
addr = "127.0.0.1:9000"
`
	cfg, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Layout.Engine != "graphviz" || cfg.Layout.Timeout != 2*time.Second {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.LayerSpacing != layout.DefaultLayerSpacing {
		t.Errorf("unset fields should keep defaults, got %v", cfg.Layout.LayerSpacing)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Cache.Backend != BackendFile {
		t.Errorf("config = %+v", cfg)
	}
	lo, err := cfg.LayoutOptions()
	if err != nil || lo.Direction != layout.DirectionDown {
		t.Errorf("LayoutOptions = %+v, %v", lo, err)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	if _, err := Decode(strings.NewReader("[layout]\nenigne = \"x\"\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis addr", func(c *Config) { c.Cache.Backend = BackendRedis }},
		{"store backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"mongo uri", func(c *Config) { c.Store.Backend = BackendMongo }},
		{"postgres dsn", func(c *Config) { c.Store.Backend = BackendPostgres }},
		{"engine", func(c *Config) { c.Layout.Engine = "force" }},
		{"direction", func(c *Config) { c.Layout.Direction = "NORTHWEST" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FLOWCANVAS_CACHE_BACKEND":  "redis",
		"FLOWCANVAS_REDIS_ADDR":     "cache:6379",
		"FLOWCANVAS_REDIS_PASSWORD": "s3cret",
		"FLOWCANVAS_REDIS_DB":       "2",
		"FLOWCANVAS_POSTGRES_DSN":   "postgres://u:p@db/flow",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}

	env["FLOWCANVAS_REDIS_DB"] = "two"
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("expected error for non-numeric db")
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Cache.RedisPassword = "s3cret"
	cfg.Store.PostgresDSN = "postgres://u:p@db/flow"

	var buf bytes.Buffer
	if err := cfg.Redacted().Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "s3cret") || strings.Contains(out, "u:p@db") {
		t.Errorf("secrets leaked:\n%s", out)
	}
	if cfg.Cache.RedisPassword != "s3cret" {
		t.Error("Redacted modified the original")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("FLOWCANVAS_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}

	path, _ := Path()
	if path != filepath.Join(dir, AppName, "config.toml") {
		t.Errorf("path = %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"memory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("store backend = %q", cfg.Store.Backend)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Store.Dir = t.TempDir()

	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("cache = %T", c)
	}

	s, err := cfg.OpenStore(ctx)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, ok := s.(*store.File); !ok {
		t.Errorf("store = %T", s)
	}

	cfg.Cache.Backend = BackendNone
	cfg.Store.Backend = BackendMemory
	if c, _ := cfg.OpenCache(ctx); c != cache.NewNullCache() {
		t.Errorf("cache = %T", c)
	}
	if s, _ := cfg.OpenStore(ctx); s == nil {
		t.Error("nil memory store")
	}
}
