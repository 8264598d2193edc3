package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/cache"
	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached graphs and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := cache.Open(ctx, c.cfg.CacheConfig())
			if err != nil {
				return lgerrors.Wrap(lgerrors.ErrCodeCache, err, "open %s cache", c.cfg.Cache.Backend)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				return lgerrors.New(lgerrors.ErrCodeUnsupported, "%s cache cannot be cleared", c.cfg.Cache.Backend)
			}
			if err := clearer.Clear(ctx); err != nil {
				return lgerrors.Wrap(lgerrors.ErrCodeCache, err, "clear %s cache", c.cfg.Cache.Backend)
			}

			w := cmd.OutOrStdout()
			printSuccess(w, "Cleared %s cache", c.cfg.Cache.Backend)
			if location := c.cacheLocation(); location != "" {
				printDetail(w, "Location: %s", location)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation describes where the configured backend stores entries.
func (c *CLI) cacheLocation() string {
	cc := c.cfg.Cache
	switch cc.Backend {
	case cache.BackendRedis:
		return fmt.Sprintf("redis://%s/%d", cc.RedisAddr, cc.RedisDB)
	case cache.BackendMongo:
		return cc.MongoURI
	case cache.BackendNone:
		return ""
	}
	return cc.Dir
}
