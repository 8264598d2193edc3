// Package cache stores built linkage results and rendered artifacts.
//
// # Backends
//
// All backends implement [Cache]:
//
//   - [FileCache]: JSON entry files under a directory (CLI default,
//     ~/.cache/linkgraph)
//   - [RedisCache]: Redis with native expiry, for shared deployments
//   - [MongoCache]: MongoDB collection with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] builds one from a [Config].
//
// # Keys
//
// Keys are content addressed. A [Keyer] derives the key of a build from the
// snapshot hash and the options that change the result, so an unchanged
// package database hits the cache and any change misses it. [ScopedKeyer]
// adds a namespace prefix when several hosts share a remote backend.
//
// # Failure policy
//
// Cache errors never fail a build. Callers log them and fall back to
// computing the result.
package cache
