package linkage

import (
	"context"
	"fmt"
	"slices"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
)

// Feed is the source of installed packages and their raw linkage payloads.
// Implementations include the package database reader in source/vardb and
// the TOML snapshot reader in source/manifest.
type Feed interface {
	// Packages returns the identifier of every installed package in the
	// order they should be processed.
	Packages(ctx context.Context) ([]string, error)

	// Needed returns the raw NEEDED payload of one package. A package
	// without linkage information returns an empty payload and no error.
	Needed(ctx context.Context, pkg string) (string, error)
}

// Ingest reads every package from feed and parses its payload into a
// [Snapshot]. Packages with empty payloads are skipped. The first feed or
// parse error aborts ingestion and is returned annotated with the package.
func Ingest(ctx context.Context, feed Feed) (*Snapshot, error) {
	ids, err := feed.Packages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	pkgs := make([]Package, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := feed.Needed(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", id, err)
		}
		recs, err := ParseRecords(id, payload)
		if err != nil {
			return nil, err
		}
		if len(recs) > 0 {
			pkgs = append(pkgs, Package{ID: id, Records: recs})
		}
	}
	return NewSnapshot(pkgs...), nil
}

// MapFeed is an in-memory [Feed] that preserves insertion order.
// It is not safe for concurrent modification.
type MapFeed struct {
	order    []string
	payloads map[string]string
}

// NewMapFeed creates an empty in-memory feed.
func NewMapFeed() *MapFeed {
	return &MapFeed{payloads: make(map[string]string)}
}

// Add registers a package payload. Adding an existing package replaces its
// payload but keeps its original position.
func (f *MapFeed) Add(pkg, payload string) *MapFeed {
	if _, ok := f.payloads[pkg]; !ok {
		f.order = append(f.order, pkg)
	}
	f.payloads[pkg] = payload
	return f
}

// Packages returns package identifiers in insertion order.
func (f *MapFeed) Packages(ctx context.Context) ([]string, error) {
	return slices.Clone(f.order), nil
}

// Needed returns the payload registered for pkg.
func (f *MapFeed) Needed(ctx context.Context, pkg string) (string, error) {
	payload, ok := f.payloads[pkg]
	if !ok {
		return "", lgerrors.New(lgerrors.ErrCodePackageNotFound, "package %q not in feed", pkg)
	}
	return payload, nil
}

var _ Feed = (*MapFeed)(nil)
