package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/linkgraph/pkg/cache"
	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
source = "manifest"
manifest = "/srv/snapshots/host-a.toml"

[cache]
backend = "redis"
ttl = "24h"
redis_addr = "cache:6379"
redis_db = 2

[build]
parallel = true
reverse = "transitive"

[serve]
addr = ":9090"
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	opts := cfg.PipelineOptions()
	if opts.Source != "manifest" || opts.Manifest != "/srv/snapshots/host-a.toml" || !opts.Parallel || opts.Reverse != "transitive" {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
	cc := cfg.CacheConfig()
	if cc.Backend != cache.BackendRedis || cc.Redis.Addr != "cache:6379" || cc.Redis.DB != 2 {
		t.Errorf("CacheConfig() = %+v", cc)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("Serve.Addr = %q", cfg.Serve.Addr)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	cfg := Default()

	tests := []struct {
		name, got, want string
	}{
		{"source", cfg.Source, "vardb"},
		{"root", cfg.Root, "/var/db/pkg"},
		{"backend", cfg.Cache.Backend, cache.BackendFile},
		{"cache dir", cfg.Cache.Dir, "/tmp/xdg-cache/linkgraph"},
		{"reverse", cfg.Build.Reverse, "direct"},
		{"addr", cfg.Serve.Addr, "127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("default %s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code lgerrors.Code
	}{
		{"syntax", `source = `, lgerrors.ErrCodeInvalidFormat},
		{"unknown key", `sources = "vardb"`, lgerrors.ErrCodeInvalidFormat},
		{"unknown section key", "[cache]\nhost = \"x\"", lgerrors.ErrCodeInvalidFormat},
		{"bad source", `source = "rpm"`, lgerrors.ErrCodeInvalidInput},
		{"bad backend", "[cache]\nbackend = \"memcached\"", lgerrors.ErrCodeInvalidInput},
		{"negative ttl", "[cache]\nttl = \"-1h\"", lgerrors.ErrCodeInvalidInput},
		{"bad reverse", "[build]\nreverse = \"up\"", lgerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if !lgerrors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Missing default file falls back to defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(default) error: %v", err)
	}
	if cfg.Source != "vardb" {
		t.Errorf("Load(default).Source = %q", cfg.Source)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[build]\ndrop_unresolved = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(default) error: %v", err)
	}
	if !cfg.Build.DropUnresolved {
		t.Error("Load(default) should read the XDG config file")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !lgerrors.Is(err, lgerrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/.cache/lg", filepath.Join(home, ".cache/lg")},
		{"~", home},
		{"/var/cache/lg", "/var/cache/lg"},
		{"~user/x", "~user/x"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "linkgraph.toml"))
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if cfg.Source != "manifest" || cfg.Build.Reverse != "transitive" || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Load(example) = %+v", cfg)
	}
}
