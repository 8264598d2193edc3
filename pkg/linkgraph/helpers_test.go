package linkgraph

import (
	"context"
	"testing"

	"github.com/matzehuels/linkgraph/pkg/linkage"
)

func lib(abi ABI, path, soname string, needed ...string) linkage.Record {
	return linkage.Record{ABI: abi, Object: path, Soname: soname, Needed: needed}
}

func exe(abi ABI, path string, needed ...string) linkage.Record {
	return linkage.Record{ABI: abi, Object: path, Needed: needed}
}

// scenarioRecords is prog → libB → libA in ABI class X.
func scenarioRecords() []linkage.Record {
	return []linkage.Record{
		lib("X", "/lib/libA.so.1", "libA.so.1"),
		lib("X", "/lib/libB.so.1", "libB.so.1", "libA.so.1"),
		exe("X", "/bin/prog", "libB.so.1"),
	}
}

func buildGraph(records []linkage.Record) (*Graph, *Registry) {
	reg := BuildRegistry(records)
	return BuildDirect(records, reg), reg
}

func closeGraph(t *testing.T, records []linkage.Record, opts Options) *Graph {
	t.Helper()
	g, _ := buildGraph(records)
	if _, err := Close(context.Background(), g, opts); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	return g
}

func mustDeps(t *testing.T, g *Graph, abi ABI, path string) []string {
	t.Helper()
	deps, ok := g.Deps(abi, path)
	if !ok {
		t.Fatalf("Deps(%s, %s) not found", abi, path)
	}
	return deps
}
