package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkgraph/pkg/cache"
	lgio "github.com/matzehuels/linkgraph/pkg/io"
	"github.com/matzehuels/linkgraph/pkg/linkage"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
	"github.com/matzehuels/linkgraph/pkg/observability"
	"github.com/matzehuels/linkgraph/pkg/render/dot"
	"github.com/matzehuels/linkgraph/pkg/source/manifest"
	"github.com/matzehuels/linkgraph/pkg/source/vardb"
)

// Key types reported to the cache hooks.
const (
	keyTypeGraph    = "graph"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default entry lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs ingest and build.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Ingest
	ingestStart := time.Now()
	snap, err := r.Ingest(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	result.Snapshot = snap
	result.Stats.IngestTime = time.Since(ingestStart)
	result.Stats.Packages = snap.PackageCount()
	result.Stats.Records = snap.Len()

	// Stage 2: Build
	buildStart := time.Now()
	res, hit, err := r.BuildWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = res
	result.Stats.BuildTime = time.Since(buildStart)
	result.CacheInfo.BuildHit = hit

	return result, nil
}

// OpenFeed returns the feed selected by opts.
func OpenFeed(opts Options) (linkage.Feed, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Source == SourceManifest {
		return manifest.Load(opts.Manifest)
	}
	return vardb.Open(opts.Root)
}

// Ingest reads the configured feed into a snapshot.
func (r *Runner) Ingest(ctx context.Context, opts Options) (*linkage.Snapshot, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnIngestStart(ctx, opts.Source)
	start := time.Now()

	snap, err := r.ingest(ctx, opts)
	if err != nil {
		hooks.OnIngestComplete(ctx, opts.Source, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnIngestComplete(ctx, opts.Source, snap.PackageCount(), snap.Len(), time.Since(start), nil)

	r.Logger.Info("ingested snapshot",
		"source", opts.Describe(),
		"packages", snap.PackageCount(),
		"records", snap.Len(),
		"duration", time.Since(start))
	return snap, nil
}

func (r *Runner) ingest(ctx context.Context, opts Options) (*linkage.Snapshot, error) {
	feed, err := OpenFeed(opts)
	if err != nil {
		return nil, err
	}
	return linkage.Ingest(ctx, feed)
}

// BuildWithCacheInfo builds the linkage graph of snap with caching and
// reports whether the result came from the cache.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, snap *linkage.Snapshot, opts Options) (*linkgraph.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.GraphKey(snap.Hash(), cache.GraphKeyOpts{
		DropUnresolved: opts.DropUnresolved,
		Reverse:        opts.Reverse,
	})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if res, ok := r.cachedResult(ctx, cacheKey); ok {
			r.Logger.Debug("graph cache hit", "snapshot", snap.Hash())
			return res, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, snap.Len())
	start := time.Now()

	res, err := linkgraph.Build(ctx, snap, opts.BuildOptions())
	if err != nil {
		hooks.OnBuildComplete(ctx, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnBuildComplete(ctx, res.Stats.Objects, res.Stats.ClosedEdges, time.Since(start), nil)

	r.Logger.Info("built graph",
		"abis", res.Stats.ABIs,
		"objects", res.Stats.Objects,
		"libraries", res.Stats.Libraries,
		"closed_edges", res.Stats.ClosedEdges,
		"reverse", res.Reverse.Kind,
		"duration", time.Since(start))

	if data, err := lgio.MarshalJSON(res); err == nil {
		r.store(ctx, keyTypeGraph, cacheKey, data, cache.TTLGraph)
	}
	return res, false, nil
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, snap *linkage.Snapshot, opts Options) (*linkgraph.Result, error) {
	res, _, err := r.BuildWithCacheInfo(ctx, snap, opts)
	return res, err
}

func (r *Runner) cachedResult(ctx context.Context, key string) (*linkgraph.Result, bool) {
	data, ok := r.lookup(ctx, keyTypeGraph, key)
	if !ok {
		return nil, false
	}
	res, err := lgio.UnmarshalJSON(data)
	if err != nil {
		// Stale document format; rebuild.
		r.Logger.Debug("discarding cached graph", "error", err)
		return nil, false
	}
	return res, true
}

// RenderWithCacheInfo produces one artifact of res with caching and reports
// whether it came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *linkgraph.Result, opts RenderOptions) ([]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ArtifactKey(res.ID, cache.ArtifactKeyOpts{
		Format:     opts.Format,
		ABI:        opts.ABI + "|" + opts.Root,
		Transitive: opts.Transitive,
	})
	if data, ok := r.lookup(ctx, keyTypeArtifact, cacheKey); ok {
		return data, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()

	data, err := render(ctx, res, opts)
	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.Logger.Debug("rendered output", "format", opts.Format, "bytes", len(data), "duration", time.Since(start))
	r.store(ctx, keyTypeArtifact, cacheKey, data, cache.TTLArtifact)
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *linkgraph.Result, opts RenderOptions) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return data, err
}

func render(ctx context.Context, res *linkgraph.Result, opts RenderOptions) ([]byte, error) {
	switch opts.Format {
	case FormatJSON:
		return lgio.MarshalJSON(res)
	case FormatYAML:
		var buf bytes.Buffer
		if err := lgio.WriteYAML(res, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	src, err := dot.ToDOT(res, dot.Options{ABI: opts.ABI, Transitive: opts.Transitive, Root: opts.Root})
	if err != nil {
		return nil, err
	}
	if opts.Format == FormatDOT {
		return []byte(src), nil
	}
	return dot.RenderSVG(ctx, src)
}

// lookup reads key from the cache. Cache failures count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		hooks.OnCacheError(ctx, keyType, err)
		r.Logger.Warn("cache read failed", "key_type", keyType, "error", err)
		return nil, false
	case !hit:
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		observability.Cache().OnCacheError(ctx, keyType, err)
		r.Logger.Warn("cache write failed", "key_type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
