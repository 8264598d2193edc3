// Package pipeline runs the ingest → build → render sequence shared by the
// CLI and the query API server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Ingest: read every installed package from a feed into a snapshot
//  2. Build: registry, direct graph, transitive closure and reverse graph
//  3. Render: serialize or draw a built result (JSON, YAML, DOT, SVG)
//
// Build results are cached under the snapshot hash and the build options,
// so re-running against an unchanged package database skips the closure.
// Rendered artifacts are cached under the result ID.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Source: pipeline.SourceVarDB})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	deps, _ := result.Graph.Deps("X86_64", "/usr/bin/xz")
//
// Run individual stages:
//
//	snap, err := runner.Ingest(ctx, opts)
//	res, err := runner.Build(ctx, snap, opts)
//	svg, err := runner.Render(ctx, res, pipeline.RenderOptions{Format: pipeline.FormatSVG})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkage"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
	"github.com/matzehuels/linkgraph/pkg/source/vardb"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Feed sources.
const (
	SourceVarDB    = "vardb"
	SourceManifest = "manifest"
)

// DefaultSource is the feed read when none is configured.
const DefaultSource = SourceVarDB

// Format constants for rendered outputs.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidSources is the set of supported feed sources.
var ValidSources = map[string]bool{
	SourceVarDB:    true,
	SourceManifest: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures the ingest and build stages.
type Options struct {
	// Ingest options
	Source   string `json:"source"`
	Root     string `json:"root,omitempty"`     // package database root for vardb
	Manifest string `json:"manifest,omitempty"` // TOML snapshot path for manifest

	// Build options
	Parallel       bool   `json:"parallel,omitempty"`
	DropUnresolved bool   `json:"drop_unresolved,omitempty"`
	Reverse        string `json:"reverse,omitempty"`
	Refresh        bool   `json:"refresh,omitempty"` // bypass the result cache

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// RenderOptions selects what a render produces.
type RenderOptions struct {
	Format     string `json:"format"`
	ABI        string `json:"abi,omitempty"`
	Transitive bool   `json:"transitive,omitempty"`
	Root       string `json:"root,omitempty"` // limit DOT/SVG output to one object
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the ingested input.
	Snapshot *linkage.Snapshot

	// Graph is the built (or cached) linkage graph.
	Graph *linkgraph.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Packages   int
	Records    int
	IngestTime time.Duration
	BuildTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit bool // Whether the built graph came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, yaml, dot, svg)", format)
	}
	return nil
}

// ValidateSource checks that a feed source is valid.
func ValidateSource(source string) error {
	if !ValidSources[source] {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput, "invalid source: %q (must be one of: vardb, manifest)", source)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source == "" {
		o.Source = DefaultSource
	}
	if err := ValidateSource(o.Source); err != nil {
		return err
	}
	switch o.Source {
	case SourceVarDB:
		if o.Root == "" {
			o.Root = vardb.DefaultRoot
		}
	case SourceManifest:
		if o.Manifest == "" {
			return lgerrors.New(lgerrors.ErrCodeInvalidInput, "manifest path is required for source %q", SourceManifest)
		}
	}

	kind, err := linkgraph.ParseReverseKind(o.Reverse)
	if err != nil {
		return lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "reverse")
	}
	o.Reverse = string(kind)

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// BuildOptions converts o into engine options.
func (o *Options) BuildOptions() linkgraph.Options {
	return linkgraph.Options{
		DropUnresolved: o.DropUnresolved,
		Parallel:       o.Parallel,
		Reverse:        linkgraph.ReverseKind(o.Reverse),
	}
}

// Describe names the configured feed for logs and metrics labels.
func (o *Options) Describe() string {
	if o.Source == SourceManifest {
		return fmt.Sprintf("%s:%s", SourceManifest, o.Manifest)
	}
	return fmt.Sprintf("%s:%s", SourceVarDB, o.Root)
}

// Validate checks the render options.
func (o RenderOptions) Validate() error {
	return ValidateFormat(o.Format)
}
