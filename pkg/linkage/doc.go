// Package linkage ingests per-package ELF linkage records.
//
// Every installed package may carry a NEEDED payload describing the ELF
// objects it installed. Each line is one [Record]:
//
//	abi;object_path;own_soname;rpath;needed1,needed2,...
//
// for example
//
//	X86_64;/usr/bin/xz;;;liblzma.so.5,libc.so.6
//	X86_64;/usr/lib64/liblzma.so.5.4.5;liblzma.so.5;;libc.so.6
//
// A [Feed] lists packages and returns their payloads; [Ingest] parses all of
// them into an immutable [Snapshot], which is the only input the graph
// builder in package linkgraph needs. Malformed lines are a hard error: they
// mean the package database is corrupt, so they are reported rather than
// skipped.
//
// The strings in a record are trusted as given. This package never opens the
// objects it describes.
package linkage
