// Package source groups the package feeds that produce linkage payloads for
// [linkage.Ingest].
//
// Two feeds are provided:
//
//   - [vardb]: reads the installed-package database of a Portage system,
//     where every package directory may carry a NEEDED.ELF.2 file.
//   - [manifest]: reads a TOML snapshot of packages and their records, for
//     offline analysis and tests.
//
// Both satisfy [linkage.Feed]; anything else that can list packages and
// return their raw payloads can be plugged in the same way.
//
// [vardb]: github.com/matzehuels/linkgraph/pkg/source/vardb
// [manifest]: github.com/matzehuels/linkgraph/pkg/source/manifest
package source
