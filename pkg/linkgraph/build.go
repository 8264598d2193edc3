package linkgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkage"
)

var (
	// ErrUnknownABI is returned by [Result] queries for an ABI class with no
	// objects.
	ErrUnknownABI = errors.New("unknown ABI class")

	// ErrUnknownObject is returned by [Result] queries for an object path
	// that is not in the graph.
	ErrUnknownObject = errors.New("unknown object")

	// ErrUnknownSoname is returned by [Result.Dependents] for a soname that
	// is neither provided nor referenced in the ABI class.
	ErrUnknownSoname = errors.New("unknown soname")
)

// Stats summarizes a built result.
type Stats struct {
	ABIs        int `json:"abis" yaml:"abis"`
	Objects     int `json:"objects" yaml:"objects"`
	Libraries   int `json:"libraries" yaml:"libraries"`
	DirectEdges int `json:"direct_edges" yaml:"direct_edges"`
	ClosedEdges int `json:"closed_edges" yaml:"closed_edges"`
	Added       int `json:"added" yaml:"added"` // entries appended by closure
}

// Result is the output of one build: the closed forward graph, its reverse
// graph, and both halves of the library registry. A Result is read-only once
// returned.
type Result struct {
	ID           string
	SnapshotHash string
	CreatedAt    time.Time

	Forward  *Graph
	Reverse  *Reverse
	Registry *Registry
	Stats    Stats
}

// Build runs the whole engine over a snapshot: registry, direct graph,
// transitive closure, reverse graph.
//
// The forward graph in the result is closed. The reverse graph is derived
// from the direct edges unless opts.Reverse selects [ReverseTransitive];
// Result.Reverse.Kind always records which.
func Build(ctx context.Context, snap *linkage.Snapshot, opts Options) (*Result, error) {
	records := snap.Records()
	reg := BuildRegistry(records)
	g := BuildDirect(records, reg)

	added, err := Close(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("close graph: %w", err)
	}

	res := NewResult(g, reg, opts.Reverse)
	res.SnapshotHash = snap.Hash()
	res.Stats.Added = added
	return res, nil
}

// NewResult assembles a result around an already built graph and registry,
// deriving the reverse graph of the requested kind. It is used by [Build]
// and when loading a serialized result.
func NewResult(g *Graph, reg *Registry, kind ReverseKind) *Result {
	return &Result{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Forward:   g,
		Reverse:   BuildReverse(g, kind),
		Registry:  reg,
		Stats: Stats{
			ABIs:        len(g.parts),
			Objects:     g.NodeCount(),
			Libraries:   reg.Len(),
			DirectEdges: g.DirectEdgeCount(),
			ClosedEdges: g.EdgeCount(),
		},
	}
}

// Deps returns the closed dependency set of an object.
func (r *Result) Deps(abi ABI, path string) ([]string, error) {
	if err := r.checkABI(abi); err != nil {
		return nil, err
	}
	deps, ok := r.Forward.Deps(abi, path)
	if !ok {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeObjectNotFound, ErrUnknownObject, "%s in %s", path, abi)
	}
	return deps, nil
}

// DirectDeps returns the direct dependencies an object was recorded with.
func (r *Result) DirectDeps(abi ABI, path string) ([]string, error) {
	if err := r.checkABI(abi); err != nil {
		return nil, err
	}
	deps, ok := r.Forward.Direct(abi, path)
	if !ok {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeObjectNotFound, ErrUnknownObject, "%s in %s", path, abi)
	}
	return deps, nil
}

// Dependents returns the objects that depend on soname according to the
// result's reverse graph. A soname that is provided or referenced but has
// no dependents yields an empty list.
func (r *Result) Dependents(abi ABI, soname string) ([]string, error) {
	if err := r.checkABI(abi); err != nil {
		return nil, err
	}
	deps := r.Reverse.Dependents(abi, soname)
	if deps == nil && !r.Registry.Has(abi, soname) {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeSonameNotFound, ErrUnknownSoname, "%s in %s", soname, abi)
	}
	if deps == nil {
		deps = []string{}
	}
	return deps, nil
}

// Libraries returns the registered libraries of abi sorted by soname.
func (r *Result) Libraries(abi ABI) ([]Library, error) {
	if err := r.checkABI(abi); err != nil {
		return nil, err
	}
	return r.Registry.Libraries(abi), nil
}

// Unresolved returns, sorted, the sonames of abi that some object depends on
// but no registered library provides: pseudo-libraries and broken linkage.
func (r *Result) Unresolved(abi ABI) []string {
	var out []string
	for _, s := range r.Forward.Sonames(abi) {
		if !r.Registry.Has(abi, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

func (r *Result) checkABI(abi ABI) error {
	if !r.Forward.HasABI(abi) {
		return lgerrors.Wrap(lgerrors.ErrCodeNotFound, ErrUnknownABI, "%q", abi)
	}
	return nil
}
