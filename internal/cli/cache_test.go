package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/linkgraph/internal/config"
	"github.com/matzehuels/linkgraph/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	want, _ := config.CacheDir()
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
	if !strings.HasSuffix(want, "linkgraph") {
		t.Errorf("CacheDir() = %q, should end with 'linkgraph'", want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	manifest := writeManifest(t)
	cacheHome := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("XDG_CACHE_HOME", cacheHome)
		c := New(os.Stderr, LogInfo)
		c.Logger.SetOutput(&strings.Builder{})
		root := c.RootCommand()
		var out strings.Builder
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v error: %v", args, err)
		}
		return out.String()
	}

	run("--manifest", manifest, "build")
	if out := run("--manifest", manifest, "build"); !strings.Contains(out, "cached") {
		t.Errorf("second build should hit the cache:\n%s", out)
	}

	out := run("cache", "clear")
	if !strings.Contains(out, "Cleared file cache") {
		t.Errorf("cache clear output = %q", out)
	}
	entries, err := os.ReadDir(filepath.Join(cacheHome, "linkgraph"))
	if err != nil || len(entries) != 0 {
		t.Errorf("cache dir after clear = %d entries, %v", len(entries), err)
	}

	if out := run("--manifest", manifest, "build"); !strings.Contains(out, "fresh") {
		t.Errorf("build after clear should miss the cache:\n%s", out)
	}
}

func TestCacheLocation(t *testing.T) {
	tests := []struct {
		cfg  config.CacheConfig
		want string
	}{
		{config.CacheConfig{Backend: cache.BackendFile, Dir: "/var/cache/linkgraph"}, "/var/cache/linkgraph"},
		{config.CacheConfig{Backend: cache.BackendRedis, RedisAddr: "cache:6379", RedisDB: 3}, "redis://cache:6379/3"},
		{config.CacheConfig{Backend: cache.BackendMongo, MongoURI: "mongodb://db:27017"}, "mongodb://db:27017"},
		{config.CacheConfig{Backend: cache.BackendNone}, ""},
	}
	for _, tt := range tests {
		c := &CLI{cfg: &config.Config{Cache: tt.cfg}}
		if got := c.cacheLocation(); got != tt.want {
			t.Errorf("cacheLocation(%s) = %q, want %q", tt.cfg.Backend, got, tt.want)
		}
	}
}
