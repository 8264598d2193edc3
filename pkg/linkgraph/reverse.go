package linkgraph

import (
	"fmt"
	"maps"
	"slices"
)

// ReverseKind names the forward edges a [Reverse] graph was derived from.
type ReverseKind string

const (
	// ReverseDirect inverts the direct edges each object was built from:
	// Dependents(S) lists objects that link against S themselves.
	ReverseDirect ReverseKind = "direct"

	// ReverseTransitive inverts the closed dependency sets:
	// Dependents(S) lists every object that loads S at runtime.
	ReverseTransitive ReverseKind = "transitive"
)

// ParseReverseKind converts a string into a ReverseKind. The empty string
// selects [ReverseDirect].
func ParseReverseKind(s string) (ReverseKind, error) {
	switch ReverseKind(s) {
	case "", ReverseDirect:
		return ReverseDirect, nil
	case ReverseTransitive:
		return ReverseTransitive, nil
	}
	return "", fmt.Errorf("unknown reverse kind %q (want %q or %q)", s, ReverseDirect, ReverseTransitive)
}

// Reverse maps, per ABI class, each soname to the object paths whose edges
// reference it, in encounter order.
type Reverse struct {
	Kind  ReverseKind
	parts map[ABI]map[string][]string
}

// BuildReverse inverts g. Objects are visited in first-seen order and each
// object's edges in set order, so every dependents list is in encounter
// order. An object contributes each soname at most once because its edges
// are duplicate-free.
func BuildReverse(g *Graph, kind ReverseKind) *Reverse {
	if kind == "" {
		kind = ReverseDirect
	}
	r := &Reverse{Kind: kind, parts: make(map[ABI]map[string][]string, len(g.parts))}
	for abi, p := range g.parts {
		m := make(map[string][]string)
		for _, n := range p.nodes {
			edges := n.direct
			if kind == ReverseTransitive {
				edges = n.deps.items
			}
			for _, s := range edges {
				m[s] = append(m[s], n.path)
			}
		}
		r.parts[abi] = m
	}
	return r
}

// Dependents returns a copy of the objects that depend on soname within abi.
func (r *Reverse) Dependents(abi ABI, soname string) []string {
	return slices.Clone(r.parts[abi][soname])
}

// Sonames returns the sonames of abi that have dependents, sorted.
func (r *Reverse) Sonames(abi ABI) []string {
	return slices.Sorted(maps.Keys(r.parts[abi]))
}

// Map exports the reverse graph as ABI → soname → object paths.
func (r *Reverse) Map() map[ABI]map[string][]string {
	out := make(map[ABI]map[string][]string, len(r.parts))
	for abi, m := range r.parts {
		cp := make(map[string][]string, len(m))
		for s, objs := range m {
			cp[s] = slices.Clone(objs)
		}
		out[abi] = cp
	}
	return out
}
