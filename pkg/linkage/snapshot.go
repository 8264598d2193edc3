package linkage

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// Snapshot is the ingested linkage state of one system: every package that
// contributed records, in processing order. A Snapshot is built once and is
// read-only afterwards.
type Snapshot struct {
	packages []Package
	hash     string
	records  int
}

// NewSnapshot creates a snapshot from packages in processing order.
// Packages without records are dropped. Record slices are cloned so later
// changes by the caller do not leak into the snapshot.
func NewSnapshot(pkgs ...Package) *Snapshot {
	s := &Snapshot{}
	h := sha256.New()
	for _, p := range pkgs {
		if len(p.Records) == 0 {
			continue
		}
		recs := make([]Record, len(p.Records))
		for i, r := range p.Records {
			r.Needed = slices.Clone(r.Needed)
			recs[i] = r
			h.Write([]byte(p.ID))
			h.Write([]byte{0})
			h.Write([]byte(r.String()))
			h.Write([]byte{'\n'})
		}
		s.packages = append(s.packages, Package{ID: p.ID, Records: recs})
		s.records += len(recs)
	}
	s.hash = hex.EncodeToString(h.Sum(nil))
	return s
}

// Packages returns the contributing packages in processing order.
func (s *Snapshot) Packages() []Package { return slices.Clone(s.packages) }

// Records returns all records flattened in processing order: package order
// first, then payload order within a package. Later records take precedence
// wherever the graph applies last-write-wins.
func (s *Snapshot) Records() []Record {
	out := make([]Record, 0, s.records)
	for _, p := range s.packages {
		out = append(out, p.Records...)
	}
	return out
}

// Len returns the total number of records.
func (s *Snapshot) Len() int { return s.records }

// PackageCount returns the number of contributing packages.
func (s *Snapshot) PackageCount() int { return len(s.packages) }

// Hash returns a SHA-256 content hash over package identifiers and records.
// Equal snapshots have equal hashes, which makes it suitable as a cache key.
func (s *Snapshot) Hash() string { return s.hash }
