package linkgraph

import (
	"maps"
	"slices"

	"github.com/matzehuels/linkgraph/pkg/linkage"
)

// Forward is a plain forward adjacency map: ABI → object path → sonames.
type Forward map[ABI]map[string][]string

// Graph is the per-ABI forward linkage graph.
//
// Each ABI class owns an arena of nodes, one per distinct object path.
// Object paths and sonames are both lookup keys into the same arena, so a
// library reached by path or by soname yields the same [DepSet]. Each node
// also remembers the direct edges it was built from, which keeps the
// pre-closure graph available after [Close] has run.
//
// The zero value is not usable; use [NewGraph] or [BuildDirect].
type Graph struct {
	parts map[ABI]*partition
}

type partition struct {
	nodes    []node
	byPath   map[string]int
	bySoname map[string]int
}

type node struct {
	path   string
	direct []string
	deps   *DepSet
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{parts: make(map[ABI]*partition)}
}

// BuildDirect builds the pre-closure graph from records in processing order
// and binds the soname view using reg.
//
// If the same (ABI, object path) recurs, the later record replaces the
// node's edges but the node keeps its first-seen position.
func BuildDirect(records []linkage.Record, reg *Registry) *Graph {
	g := NewGraph()
	for _, rec := range records {
		g.SetObject(rec.ABI, rec.Object, rec.Needed, nil)
	}
	g.BindSonames(reg)
	return g
}

// SetObject creates or replaces the node for path within abi. The node's
// DepSet starts as direct followed by any entries of deps not already
// present; pass nil deps for a fresh, unclosed node.
func (g *Graph) SetObject(abi ABI, path string, direct, deps []string) {
	p := g.partition(abi)
	set := newDepSet(direct)
	for _, s := range deps {
		set.Add(s)
	}
	n := node{path: path, direct: slices.Clone(direct), deps: set}
	if i, ok := p.byPath[path]; ok {
		p.nodes[i] = n
		return
	}
	p.byPath[path] = len(p.nodes)
	p.nodes = append(p.nodes, n)
}

// BindSonames points every registered soname at the node of its providing
// object within the same ABI class. Identities whose provider has no node in
// that class stay unbound. Existing bindings are replaced.
func (g *Graph) BindSonames(reg *Registry) {
	for _, p := range g.parts {
		clear(p.bySoname)
	}
	for id, path := range reg.IdentityToPath {
		p, ok := g.parts[id.ABI]
		if !ok {
			continue
		}
		if i, ok := p.byPath[path]; ok {
			p.bySoname[id.Soname] = i
		}
	}
}

func (g *Graph) partition(abi ABI) *partition {
	p, ok := g.parts[abi]
	if !ok {
		p = &partition{
			byPath:   make(map[string]int),
			bySoname: make(map[string]int),
		}
		g.parts[abi] = p
	}
	return p
}

// ABIs returns the ABI classes present in the graph, sorted.
func (g *Graph) ABIs() []ABI {
	return slices.Sorted(maps.Keys(g.parts))
}

// HasABI reports whether the graph has any node in abi.
func (g *Graph) HasABI(abi ABI) bool {
	_, ok := g.parts[abi]
	return ok
}

// Objects returns the object paths of abi in first-seen order.
func (g *Graph) Objects(abi ABI) []string {
	p, ok := g.parts[abi]
	if !ok {
		return nil
	}
	out := make([]string, len(p.nodes))
	for i, n := range p.nodes {
		out[i] = n.path
	}
	return out
}

// HasObject reports whether abi has a node for path.
func (g *Graph) HasObject(abi ABI, path string) bool {
	_, ok := g.ByPath(abi, path)
	return ok
}

// ByPath returns the DepSet of the object at path within abi.
func (g *Graph) ByPath(abi ABI, path string) (*DepSet, bool) {
	p, ok := g.parts[abi]
	if !ok {
		return nil, false
	}
	i, ok := p.byPath[path]
	if !ok {
		return nil, false
	}
	return p.nodes[i].deps, true
}

// BySoname returns the DepSet of the library providing soname within abi.
// It is the same *DepSet that [Graph.ByPath] returns for the provider path.
func (g *Graph) BySoname(abi ABI, soname string) (*DepSet, bool) {
	p, ok := g.parts[abi]
	if !ok {
		return nil, false
	}
	i, ok := p.bySoname[soname]
	if !ok {
		return nil, false
	}
	return p.nodes[i].deps, true
}

// Deps returns a copy of the current dependency set of path within abi.
func (g *Graph) Deps(abi ABI, path string) ([]string, bool) {
	d, ok := g.ByPath(abi, path)
	if !ok {
		return nil, false
	}
	return d.Items(), true
}

// Direct returns a copy of the direct dependencies path was built from.
func (g *Graph) Direct(abi ABI, path string) ([]string, bool) {
	p, ok := g.parts[abi]
	if !ok {
		return nil, false
	}
	i, ok := p.byPath[path]
	if !ok {
		return nil, false
	}
	out := make([]string, len(p.nodes[i].direct))
	copy(out, p.nodes[i].direct)
	return out, true
}

// Map exports the current dependency sets as a [Forward] map.
func (g *Graph) Map() Forward {
	return g.export(func(n node) []string { return n.deps.Items() })
}

// DirectMap exports the direct (pre-closure) edges as a [Forward] map.
func (g *Graph) DirectMap() Forward {
	return g.export(func(n node) []string {
		out := make([]string, len(n.direct))
		copy(out, n.direct)
		return out
	})
}

func (g *Graph) export(edges func(node) []string) Forward {
	out := make(Forward, len(g.parts))
	for abi, p := range g.parts {
		m := make(map[string][]string, len(p.nodes))
		for _, n := range p.nodes {
			m[n.path] = edges(n)
		}
		out[abi] = m
	}
	return out
}

// NodeCount returns the number of object nodes across all ABI classes.
func (g *Graph) NodeCount() int {
	total := 0
	for _, p := range g.parts {
		total += len(p.nodes)
	}
	return total
}

// EdgeCount returns the number of entries across all current dependency
// sets.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, p := range g.parts {
		for _, n := range p.nodes {
			total += n.deps.Len()
		}
	}
	return total
}

// DirectEdgeCount returns the number of direct edges across all nodes.
func (g *Graph) DirectEdgeCount() int {
	total := 0
	for _, p := range g.parts {
		for _, n := range p.nodes {
			total += len(n.direct)
		}
	}
	return total
}

// Sonames returns every soname referenced by some node of abi, in first
// discovery order over the current dependency sets.
func (g *Graph) Sonames(abi ABI) []string {
	p, ok := g.parts[abi]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, n := range p.nodes {
		for i := range n.deps.Len() {
			s := n.deps.At(i)
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}
