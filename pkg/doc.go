// Package pkg holds the public libraries of linkgraph.
//
// # Overview
//
// linkgraph reads the NEEDED records that a package manager stores for every
// installed ELF object and answers which shared libraries each object pulls
// in, directly and transitively, and which objects depend on a given soname.
// The libraries are layered:
//
//  1. [linkage] - record parsing, package feeds and snapshots
//  2. [linkgraph] - the soname registry, the forward graph, its transitive
//     closure and the reverse graph
//  3. [source] - feeds backed by a Portage package database or a TOML manifest
//  4. [pipeline] - ingest, build and render with caching
//  5. [io] and [render] - JSON, YAML, DOT and SVG outputs
//
// Supporting packages are [cache] (null, file, Redis and MongoDB backends),
// [errors] (coded errors and input validation), [observability] (pipeline,
// cache and HTTP hooks) and [buildinfo].
//
// # Data Flow
//
//	/var/db/pkg or snapshot.toml
//	         ↓
//	    [linkage.Ingest] (snapshot of records)
//	         ↓
//	    [linkgraph.Build] (registry, closure, reverse graph)
//	         ↓
//	    queries, JSON/YAML, DOT/SVG
//
// # Quick Start
//
//	db, err := vardb.Open(vardb.DefaultRoot)
//	if err != nil {
//	    return err
//	}
//	snap, err := linkage.Ingest(ctx, db)
//	if err != nil {
//	    return err
//	}
//	res, err := linkgraph.Build(ctx, snap, linkgraph.Options{})
//	if err != nil {
//	    return err
//	}
//	libs, err := res.Deps("X86_64", "/usr/bin/xz")
//
// The [pipeline.Runner] wraps the same steps with a [cache.Cache] keyed by the
// snapshot hash, so repeated runs over an unchanged system skip the build.
//
// [linkage]: github.com/matzehuels/linkgraph/pkg/linkage
// [linkgraph]: github.com/matzehuels/linkgraph/pkg/linkgraph
// [source]: github.com/matzehuels/linkgraph/pkg/source
// [pipeline]: github.com/matzehuels/linkgraph/pkg/pipeline
// [io]: github.com/matzehuels/linkgraph/pkg/io
// [render]: github.com/matzehuels/linkgraph/pkg/render
// [cache]: github.com/matzehuels/linkgraph/pkg/cache
// [errors]: github.com/matzehuels/linkgraph/pkg/errors
// [observability]: github.com/matzehuels/linkgraph/pkg/observability
// [buildinfo]: github.com/matzehuels/linkgraph/pkg/buildinfo
// [linkage.Ingest]: github.com/matzehuels/linkgraph/pkg/linkage#Ingest
// [linkgraph.Build]: github.com/matzehuels/linkgraph/pkg/linkgraph#Build
// [pipeline.Runner]: github.com/matzehuels/linkgraph/pkg/pipeline#Runner
// [cache.Cache]: github.com/matzehuels/linkgraph/pkg/cache#Cache
package pkg
