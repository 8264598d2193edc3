package linkgraph

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many nodes are closed between context checks.
const cancelCheckInterval = 256

// Options configures [Close] and [Build].
//
// The zero value closes every ABI class sequentially, keeps unresolved
// sonames discovered through other libraries, and derives the reverse graph
// from direct edges.
type Options struct {
	// DropUnresolved skips transitively discovered sonames that no
	// registered library provides (pseudo-libraries such as the vDSO).
	// Direct edges are never dropped.
	DropUnresolved bool

	// Parallel closes independent ABI classes concurrently. Nodes within
	// one ABI class are always processed sequentially.
	Parallel bool

	// Reverse selects which forward edges the reverse graph inverts.
	Reverse ReverseKind
}

// Close expands every dependency set of g in place until it is transitively
// closed and returns the number of entries appended.
//
// For each node, Close repeatedly scans a snapshot of the node's current set.
// Every soname with a provider in the same ABI class contributes the
// provider's own set; sonames without a provider are terminal. A node is
// done when a full pass appends nothing. Since sets only grow and
// membership is checked before appending, cycles terminate.
//
// Each node derives its reachability on its own rather than sharing work
// through strongly connected components, which is fine for the size of one
// system's linkage graph.
//
// Lookups go through the soname view, which shares DepSets with the path
// view, so the path-indexed graph ends up closed as well. Calling Close on a
// closed graph appends nothing.
func Close(ctx context.Context, g *Graph, opts Options) (int, error) {
	abis := g.ABIs()
	if !opts.Parallel || len(abis) < 2 {
		added := 0
		for _, abi := range abis {
			n, err := closeABI(ctx, g.parts[abi], opts)
			added += n
			if err != nil {
				return added, err
			}
		}
		return added, nil
	}

	counts := make([]int, len(abis))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, abi := range abis {
		p := g.parts[abi]
		eg.Go(func() error {
			n, err := closeABI(egCtx, p, opts)
			counts[i] = n
			return err
		})
	}
	err := eg.Wait()
	added := 0
	for _, n := range counts {
		added += n
	}
	return added, err
}

func closeABI(ctx context.Context, p *partition, opts Options) (int, error) {
	added := 0
	for i := range p.nodes {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return added, err
			}
		}
		added += closeNode(p, p.nodes[i].deps, opts)
	}
	return added, nil
}

func closeNode(p *partition, d *DepSet, opts Options) int {
	added := 0
	for {
		grew := false
		n := d.Len()
		for k := 0; k < n; k++ {
			j, ok := p.bySoname[d.At(k)]
			if !ok {
				continue
			}
			next := p.nodes[j].deps
			m := next.Len()
			for q := 0; q < m; q++ {
				t := next.At(q)
				if opts.DropUnresolved {
					if _, ok := p.bySoname[t]; !ok {
						continue
					}
				}
				if d.Add(t) {
					grew = true
					added++
				}
			}
		}
		if !grew {
			return added
		}
	}
}
