package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

type queryFlags struct {
	abi    string
	json   bool
	direct bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.abi, "abi", "", "restrict the query to one ABI class")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of text")
}

// depsEntry is one ABI class's answer to a deps query.
type depsEntry struct {
	ABI    string   `json:"abi"`
	Object string   `json:"object"`
	Deps   []string `json:"deps"`
}

// depsCommand creates the deps command.
func (c *CLI) depsCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "deps OBJECT",
		Short: "List everything an object links against",
		Long: `Deps prints the shared libraries an executable or library needs, followed
through the whole chain of library dependencies, with the path of the
installed provider of each soname in ldd style.

An object installed in several ABI classes is reported once per class.`,
		Example: `  linkgraph deps /usr/bin/xz
  linkgraph deps --direct --abi X86_64 /usr/lib64/libcurl.so.4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()
			res, err := c.loadResult(ctx, runner)
			if err != nil {
				return err
			}

			object := args[0]
			abis, err := selectABIs(res, flags.abi)
			if err != nil {
				return err
			}
			var entries []depsEntry
			for _, abi := range abis {
				if !res.Forward.HasObject(abi, object) {
					continue
				}
				query := res.Deps
				if flags.direct {
					query = res.DirectDeps
				}
				deps, err := query(abi, object)
				if err != nil {
					return err
				}
				entries = append(entries, depsEntry{ABI: string(abi), Object: object, Deps: nonNil(deps)})
			}
			if len(entries) == 0 {
				return lgerrors.Wrap(lgerrors.ErrCodeObjectNotFound, linkgraph.ErrUnknownObject, "%s", object)
			}

			w := cmd.OutOrStdout()
			if flags.json {
				return writeJSON(w, entries)
			}
			for _, e := range entries {
				if len(entries) > 1 {
					printHeading(w, e.ABI)
				}
				for _, s := range e.Deps {
					path, ok := res.Registry.Provider(linkgraph.ABI(e.ABI), s)
					fmt.Fprintln(w, resolvedLine(s, path, ok))
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.direct, "direct", false, "only direct dependencies")
	return cmd
}

// rdepsEntry is one ABI class's answer to an rdeps query.
type rdepsEntry struct {
	ABI        string   `json:"abi"`
	Soname     string   `json:"soname"`
	Kind       string   `json:"kind"`
	Dependents []string `json:"dependents"`
}

// rdepsCommand creates the rdeps command.
func (c *CLI) rdepsCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "rdeps SONAME",
		Short: "List the objects that depend on a library",
		Long: `Rdeps prints the objects whose dependencies name SONAME. By default only
objects that link SONAME directly are listed; build with --reverse transitive
to include everything that reaches it through other libraries.`,
		Example: `  linkgraph rdeps libssl.so.3
  linkgraph --reverse transitive rdeps libz.so.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()
			res, err := c.loadResult(ctx, runner)
			if err != nil {
				return err
			}

			soname := args[0]
			abis, err := selectABIs(res, flags.abi)
			if err != nil {
				return err
			}
			var entries []rdepsEntry
			for _, abi := range abis {
				users, err := res.Dependents(abi, soname)
				if lgerrors.Is(err, lgerrors.ErrCodeSonameNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				entries = append(entries, rdepsEntry{
					ABI:        string(abi),
					Soname:     soname,
					Kind:       string(res.Reverse.Kind),
					Dependents: users,
				})
			}
			if len(entries) == 0 {
				return lgerrors.Wrap(lgerrors.ErrCodeSonameNotFound, linkgraph.ErrUnknownSoname, "%s", soname)
			}

			w := cmd.OutOrStdout()
			if flags.json {
				return writeJSON(w, entries)
			}
			for _, e := range entries {
				if len(entries) > 1 {
					printHeading(w, e.ABI)
				}
				for _, path := range e.Dependents {
					fmt.Fprintln(w, path)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// libraryEntry is one registered library.
type libraryEntry struct {
	ABI    string `json:"abi"`
	Soname string `json:"soname"`
	Path   string `json:"path"`
}

// libsCommand creates the libs command.
func (c *CLI) libsCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "libs",
		Short: "List registered shared libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()
			res, err := c.loadResult(ctx, runner)
			if err != nil {
				return err
			}
			abis, err := selectABIs(res, flags.abi)
			if err != nil {
				return err
			}

			var libs []libraryEntry
			for _, abi := range abis {
				l, err := res.Libraries(abi)
				if err != nil {
					return err
				}
				for _, lib := range l {
					libs = append(libs, libraryEntry{ABI: string(abi), Soname: lib.Soname, Path: lib.Path})
				}
			}

			w := cmd.OutOrStdout()
			if flags.json {
				return writeJSON(w, libs)
			}
			rows := make([][]string, len(libs))
			for i, l := range libs {
				rows[i] = []string{l.ABI, l.Soname, l.Path}
			}
			fmt.Fprintln(w, renderTable([]string{"ABI", "Soname", "Path"}, rows))
			printDetail(w, "%d libraries", len(libs))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// unresolvedEntry lists the missing sonames of one ABI class.
type unresolvedEntry struct {
	ABI     string   `json:"abi"`
	Sonames []string `json:"sonames"`
}

// unresolvedCommand creates the unresolved command.
func (c *CLI) unresolvedCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "unresolved",
		Short: "List sonames that no installed package provides",
		Long: `Unresolved prints the sonames some object needs but no registered library
provides. Expect kernel-provided pseudo-libraries such as linux-vdso.so.1;
anything else usually means broken linkage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()
			res, err := c.loadResult(ctx, runner)
			if err != nil {
				return err
			}
			abis, err := selectABIs(res, flags.abi)
			if err != nil {
				return err
			}

			entries := make([]unresolvedEntry, 0, len(abis))
			for _, abi := range abis {
				entries = append(entries, unresolvedEntry{ABI: string(abi), Sonames: nonNil(res.Unresolved(abi))})
			}

			w := cmd.OutOrStdout()
			if flags.json {
				return writeJSON(w, entries)
			}
			for _, e := range entries {
				if len(e.Sonames) == 0 {
					continue
				}
				printHeading(w, e.ABI)
				for _, s := range e.Sonames {
					fmt.Fprintln(w, "\t"+s)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
