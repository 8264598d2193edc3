// Package linkgraph builds the shared-library linkage graph of an installed
// system and computes its transitive closure.
//
// # Overview
//
// The input is a [linkage.Snapshot]: one record per ELF object naming its
// ABI class, path, own soname (libraries only) and the sonames it needs.
// [Build] turns it into:
//
//   - a [Registry]: object path ↔ (soname, ABI) for every library
//   - a forward [Graph]: ABI → object path → closed [DepSet]
//   - a [Reverse] graph: ABI → soname → objects depending on it
//
// # Aliasing
//
// Within an ABI class, nodes live in one arena. Both the path index and the
// soname index resolve to an arena slot, so the library providing soname S
// at path P has exactly one DepSet whether it is looked up as P or as S.
// [Close] walks the graph through the soname index and the path-indexed view
// is closed by the same writes.
//
// # ABI isolation
//
// Every lookup is scoped by ABI class first. The same soname string in two
// ABI classes names two unrelated libraries and no edge crosses classes.
//
// # Reverse graph
//
// The reverse graph inverts the direct edges by default, so Dependents(S)
// answers "who links against S". With [Options].Reverse set to
// [ReverseTransitive] it inverts the closed sets instead and answers "who
// loads S at runtime". [Reverse].Kind records the variant.
//
// # Example
//
//	snap, err := linkage.Ingest(ctx, feed)
//	if err != nil {
//	    return err
//	}
//	res, err := linkgraph.Build(ctx, snap, linkgraph.Options{})
//	if err != nil {
//	    return err
//	}
//	deps, _ := res.Deps("X86_64", "/usr/bin/xz")
//
// # Concurrency
//
// Build is synchronous unless [Options].Parallel is set, in which case ABI
// classes are closed concurrently; they share no state. A Result may be read
// from many goroutines once Build returns.
package linkgraph
