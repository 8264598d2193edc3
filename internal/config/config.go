// Package config loads the linkgraph configuration file.
//
// The file is TOML and every key is optional:
//
//	source   = "vardb"          # or "manifest"
//	root     = "/var/db/pkg"
//	manifest = "snapshot.toml"
//
//	[cache]
//	backend = "file"            # file, redis, mongo or none
//	dir     = "~/.cache/linkgraph"
//	ttl     = "168h"
//	redis_addr = "localhost:6379"
//	mongo_uri  = "mongodb://localhost:27017"
//
//	[build]
//	parallel        = true
//	drop_unresolved = false
//	reverse         = "direct"  # or "transitive"
//
//	[serve]
//	addr = "127.0.0.1:8080"
//
// Command-line flags override file values.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/linkgraph/internal/api"
	"github.com/matzehuels/linkgraph/pkg/cache"
	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
	"github.com/matzehuels/linkgraph/pkg/pipeline"
	"github.com/matzehuels/linkgraph/pkg/source/vardb"
)

// AppName names the configuration and cache directories.
const AppName = "linkgraph"

// Config is the decoded configuration file.
type Config struct {
	Source   string `toml:"source"`
	Root     string `toml:"root"`
	Manifest string `toml:"manifest"`

	Cache CacheConfig `toml:"cache"`
	Build BuildConfig `toml:"build"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// BuildConfig holds engine options.
type BuildConfig struct {
	Parallel       bool   `toml:"parallel"`
	DropUnresolved bool   `toml:"drop_unresolved"`
	Reverse        string `toml:"reverse"`
}

// ServeConfig configures the query API server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultPath returns $XDG_CONFIG_HOME/linkgraph/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/linkgraph/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads the configuration at path. An empty path loads the default
// location, where a missing file yields [Default]. A missing explicit path
// is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !explicit {
				return Default(), nil
			}
			return nil, lgerrors.Wrap(lgerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates configuration from TOML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "unknown config key %q", undecoded[0].String())
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Source) == "" {
		cfg.Source = pipeline.DefaultSource
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = vardb.DefaultRoot
	}
	if strings.TrimSpace(cfg.Cache.Backend) == "" {
		cfg.Cache.Backend = cache.BackendFile
	}
	if strings.TrimSpace(cfg.Cache.Dir) == "" {
		if dir, err := CacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	if strings.TrimSpace(cfg.Build.Reverse) == "" {
		cfg.Build.Reverse = string(linkgraph.ReverseDirect)
	}
	if strings.TrimSpace(cfg.Serve.Addr) == "" {
		cfg.Serve.Addr = api.DefaultAddr
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if err := pipeline.ValidateSource(c.Source); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone:
	default:
		return lgerrors.New(lgerrors.ErrCodeInvalidInput, "invalid cache backend: %q (must be one of: file, redis, mongo, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput, "cache ttl cannot be negative")
	}
	if _, err := linkgraph.ParseReverseKind(c.Build.Reverse); err != nil {
		return lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "build.reverse")
	}
	return nil
}

// PipelineOptions returns the ingest and build options described by c.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Source:         c.Source,
		Root:           c.Root,
		Manifest:       c.Manifest,
		Parallel:       c.Build.Parallel,
		DropUnresolved: c.Build.DropUnresolved,
		Reverse:        c.Build.Reverse,
	}
}

// CacheConfig returns the cache backend configuration described by c.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.MongoURI,
			Database:   c.Cache.MongoDatabase,
			Collection: c.Cache.MongoCollection,
		},
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
