// Package cli implements the linkgraph command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/linkgraph/internal/config"
	"github.com/matzehuels/linkgraph/pkg/buildinfo"
	"github.com/matzehuels/linkgraph/pkg/cache"
	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	lgio "github.com/matzehuels/linkgraph/pkg/io"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
	"github.com/matzehuels/linkgraph/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	flags globalFlags
	cfg   *config.Config
}

// globalFlags are the persistent flags shared by every command. Each one
// overrides the matching config file value only when set explicitly.
type globalFlags struct {
	configPath string

	source   string
	root     string
	manifest string
	graph    string // previously exported JSON result

	cacheBackend string
	noCache      bool
	refresh      bool

	parallel       bool
	dropUnresolved bool
	reverse        string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "linkgraph",
		Short: "linkgraph maps shared-library linkage of installed packages",
		Long: `linkgraph reads the NEEDED records of every installed package and builds the
shared-library dependency graph of the system: what each executable and library
links against directly, everything the dynamic loader pulls in transitively,
and which objects depend on a given library.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd.Flags()); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	f := root.PersistentFlags()
	f.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/linkgraph/config.toml)")
	f.StringVar(&c.flags.source, "source", "", "package feed: vardb or manifest")
	f.StringVar(&c.flags.root, "root", "", "package database root for the vardb source")
	f.StringVar(&c.flags.manifest, "manifest", "", "TOML snapshot to read (implies --source manifest)")
	f.StringVar(&c.flags.graph, "graph", "", "load a graph exported with 'export --format json' instead of building")
	f.StringVar(&c.flags.cacheBackend, "cache", "", "cache backend: file, redis, mongo or none")
	f.BoolVar(&c.flags.noCache, "no-cache", false, "disable the result cache")
	f.BoolVar(&c.flags.refresh, "refresh", false, "rebuild even if a cached graph exists")
	f.BoolVar(&c.flags.parallel, "parallel", false, "close ABI classes concurrently")
	f.BoolVar(&c.flags.dropUnresolved, "drop-unresolved", false, "omit sonames no installed library provides")
	f.StringVar(&c.flags.reverse, "reverse", "", "reverse graph kind: direct or transitive")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.rdepsCommand())
	root.AddCommand(c.libsCommand())
	root.AddCommand(c.unresolvedCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies explicitly set flags on top.
func (c *CLI) loadConfig(flags *pflag.FlagSet) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}

	if flags.Changed("source") {
		cfg.Source = c.flags.source
	}
	if flags.Changed("root") {
		cfg.Root = c.flags.root
	}
	if flags.Changed("manifest") {
		cfg.Manifest = c.flags.manifest
		if !flags.Changed("source") {
			cfg.Source = pipeline.SourceManifest
		}
	}
	if flags.Changed("cache") {
		cfg.Cache.Backend = c.flags.cacheBackend
	}
	if c.flags.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	if flags.Changed("parallel") {
		cfg.Build.Parallel = c.flags.parallel
	}
	if flags.Changed("drop-unresolved") {
		cfg.Build.DropUnresolved = c.flags.dropUnresolved
	}
	if flags.Changed("reverse") {
		cfg.Build.Reverse = c.flags.reverse
	}
	if c.flags.graph != "" {
		if err := checkGraphFlags(flags); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// graphExclusiveFlags shape a build. An imported graph keeps the options it
// was built with.
var graphExclusiveFlags = []string{"reverse", "drop-unresolved", "parallel", "refresh"}

func checkGraphFlags(flags *pflag.FlagSet) error {
	for _, name := range graphExclusiveFlags {
		if flags.Changed(name) {
			return lgerrors.New(lgerrors.ErrCodeInvalidInput, "--%s cannot be combined with --graph", name)
		}
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. An unreachable cache
// backend is reported and replaced by the null cache.
func (c *CLI) newRunner(ctx context.Context) *pipeline.Runner {
	logger := loggerFromContext(ctx)
	store, err := cache.Open(ctx, c.cfg.CacheConfig())
	if err != nil {
		logger.Warn("cache disabled", "backend", c.cfg.Cache.Backend, "error", err)
		store = cache.NewNullCache()
	}
	r := pipeline.NewRunner(store, nil, logger)
	r.TTL = c.cfg.Cache.TTL
	return r
}

// pipelineOptions returns the ingest and build options of this invocation.
func (c *CLI) pipelineOptions() pipeline.Options {
	opts := c.cfg.PipelineOptions()
	opts.Refresh = c.flags.refresh
	opts.Logger = c.Logger
	return opts
}

// loadResult builds the graph, or imports it when --graph is set.
func (c *CLI) loadResult(ctx context.Context, r *pipeline.Runner) (*linkgraph.Result, error) {
	logger := loggerFromContext(ctx)
	if c.flags.graph != "" {
		prog := newProgress(logger)
		res, err := lgio.ImportJSON(c.flags.graph)
		if err != nil {
			return nil, err
		}
		prog.done("Loaded graph " + c.flags.graph)
		return res, nil
	}

	out, err := r.Execute(ctx, c.pipelineOptions())
	if err != nil {
		return nil, err
	}
	return out.Graph, nil
}

// =============================================================================
// Query Helpers
// =============================================================================

// selectABIs returns abi when set, or every ABI class of res.
func selectABIs(res *linkgraph.Result, abi string) ([]linkgraph.ABI, error) {
	if abi == "" {
		return res.Forward.ABIs(), nil
	}
	if err := lgerrors.ValidateABI(abi); err != nil {
		return nil, err
	}
	if !res.Forward.HasABI(linkgraph.ABI(abi)) {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeNotFound, linkgraph.ErrUnknownABI, "%q", abi)
	}
	return []linkgraph.ABI{linkgraph.ABI(abi)}, nil
}
