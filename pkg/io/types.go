package io

import (
	"time"

	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

// FormatVersion is written into every document and checked on import.
const FormatVersion = 1

// Document is the serialized form of a [linkgraph.Result].
type Document struct {
	Version      int             `json:"version" yaml:"version"`
	ID           string          `json:"id" yaml:"id"`
	SnapshotHash string          `json:"snapshot_hash,omitempty" yaml:"snapshot_hash,omitempty"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
	ReverseKind  string          `json:"reverse_kind" yaml:"reverse_kind"`
	Stats        linkgraph.Stats `json:"stats" yaml:"stats"`
	ABIs         []ABIGraph      `json:"abis" yaml:"abis"`
	Registry     Registry        `json:"registry" yaml:"registry"`
}

// ABIGraph holds one ABI class: its objects in first-seen order and the
// reverse index.
type ABIGraph struct {
	ABI     string              `json:"abi" yaml:"abi"`
	Objects []Object            `json:"objects" yaml:"objects"`
	Reverse map[string][]string `json:"reverse" yaml:"reverse"`
}

// Object is one node of the forward graph.
type Object struct {
	Path   string   `json:"path" yaml:"path"`
	Soname string   `json:"soname,omitempty" yaml:"soname,omitempty"`
	Direct []string `json:"direct" yaml:"direct"`
	Deps   []string `json:"deps" yaml:"deps"`
}

// Registry holds both halves of the library registry. They are stored
// separately because a path that lost its identity to a later provider
// still maps to that identity.
type Registry struct {
	Providers []Binding `json:"providers" yaml:"providers"`
	Paths     []Binding `json:"paths" yaml:"paths"`
}

// Binding is one (ABI, soname, path) registry entry.
type Binding struct {
	ABI    string `json:"abi" yaml:"abi"`
	Soname string `json:"soname" yaml:"soname"`
	Path   string `json:"path" yaml:"path"`
}
