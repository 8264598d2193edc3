package linkgraph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/linkgraph/pkg/linkage"
)

func TestCloseScenario(t *testing.T) {
	g := closeGraph(t, scenarioRecords(), Options{})

	tests := []struct {
		path string
		want []string
	}{
		{"/bin/prog", []string{"libB.so.1", "libA.so.1"}},
		{"/lib/libB.so.1", []string{"libA.so.1"}},
		{"/lib/libA.so.1", []string{}},
	}
	for _, tt := range tests {
		if got := mustDeps(t, g, "X", tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Deps(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}

	bySoname, _ := g.BySoname("X", "libB.so.1")
	if got := bySoname.Items(); !reflect.DeepEqual(got, []string{"libA.so.1"}) {
		t.Errorf("BySoname(libB.so.1) = %v, want [libA.so.1]", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	records := chainRecords("X", 12)
	g, _ := buildGraph(records)

	added, err := Close(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if added == 0 {
		t.Fatal("first Close() appended nothing on a chain")
	}
	before := g.Map()

	again, err := Close(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if again != 0 {
		t.Errorf("second Close() appended %d, want 0", again)
	}
	if !reflect.DeepEqual(g.Map(), before) {
		t.Error("second Close() changed the graph")
	}
}

func TestCloseMonotonic(t *testing.T) {
	records := append(chainRecords("X", 6),
		exe("X", "/bin/a", "libchain5.so", "libmissing.so.0"),
		lib("X", "/lib/libcycle.so", "libcycle.so", "libchain0.so", "libcycle.so"),
	)
	g, _ := buildGraph(records)
	before := g.Map()

	if _, err := Close(context.Background(), g, Options{}); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	for abi, objs := range before {
		for path, pre := range objs {
			d, _ := g.ByPath(abi, path)
			if !d.HasPrefix(pre) {
				t.Errorf("%s: closed set %v does not extend %v", path, d.Items(), pre)
			}
		}
	}
}

func TestCloseABIIsolation(t *testing.T) {
	records := []linkage.Record{
		lib("X86_64", "/usr/lib64/libfoo.so.1", "libfoo.so.1", "libbar64.so"),
		lib("X86_64", "/usr/lib64/libbar64.so", "libbar64.so"),
		exe("X86_64", "/usr/bin/app", "libfoo.so.1"),
		lib("X86_32", "/usr/lib/libfoo.so.1", "libfoo.so.1", "libbar32.so"),
		lib("X86_32", "/usr/lib/libbar32.so", "libbar32.so", "libonly32.so"),
		exe("X86_32", "/usr/bin/app32", "libfoo.so.1"),
	}
	g := closeGraph(t, records, Options{})

	seen := map[ABI]map[string]bool{}
	for abi, objs := range g.Map() {
		seen[abi] = map[string]bool{}
		for _, deps := range objs {
			for _, s := range deps {
				seen[abi][s] = true
			}
		}
	}
	for _, s := range []string{"libbar32.so", "libonly32.so"} {
		if seen["X86_64"][s] {
			t.Errorf("%s leaked into X86_64", s)
		}
	}
	if seen["X86_32"]["libbar64.so"] {
		t.Error("libbar64.so leaked into X86_32")
	}
	if got := mustDeps(t, g, "X86_32", "/usr/bin/app32"); !reflect.DeepEqual(got, []string{"libfoo.so.1", "libbar32.so", "libonly32.so"}) {
		t.Errorf("Deps(app32) = %v", got)
	}
}

func TestCloseCycle(t *testing.T) {
	records := []linkage.Record{
		lib("X", "/lib/libA.so", "libA.so", "libB.so"),
		lib("X", "/lib/libB.so", "libB.so", "libA.so"),
	}
	g := closeGraph(t, records, Options{})

	for _, path := range []string{"/lib/libA.so", "/lib/libB.so"} {
		d, _ := g.ByPath("X", path)
		if d.Len() != 2 || !d.Contains("libA.so") || !d.Contains("libB.so") {
			t.Errorf("Deps(%s) = %v, want {libA.so, libB.so}", path, d.Items())
		}
	}
}

func TestCloseUnresolved(t *testing.T) {
	records := []linkage.Record{
		lib("X", "/lib/libc.so.6", "libc.so.6", "linux-vdso.so.1", "ld-linux.so.2"),
		exe("X", "/bin/true", "libc.so.6", "libgone.so.3"),
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"kept by default", Options{}, []string{"libc.so.6", "libgone.so.3", "linux-vdso.so.1", "ld-linux.so.2"}},
		{"dropped", Options{DropUnresolved: true}, []string{"libc.so.6", "libgone.so.3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := closeGraph(t, records, tt.opts)
			if got := mustDeps(t, g, "X", "/bin/true"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Deps(/bin/true) = %v, want %v", got, tt.want)
			}
			if got := mustDeps(t, g, "X", "/lib/libc.so.6"); len(got) != 2 {
				t.Errorf("Deps(libc) = %v, direct edges must survive", got)
			}
		})
	}
}

func TestCloseParallel(t *testing.T) {
	var records []linkage.Record
	for _, abi := range []ABI{"X86_64", "X86_32", "ARM_64", "ARM_32"} {
		records = append(records, chainRecords(abi, 40)...)
	}

	seq := closeGraph(t, records, Options{})
	par := closeGraph(t, records, Options{Parallel: true})
	if !reflect.DeepEqual(seq.Map(), par.Map()) {
		t.Error("parallel closure differs from sequential closure")
	}
}

func TestCloseCancelled(t *testing.T) {
	g, _ := buildGraph(chainRecords("X", 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{false, true} {
		_, err := Close(ctx, g, Options{Parallel: parallel})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Close(parallel=%v) error = %v, want context.Canceled", parallel, err)
		}
	}
}

// chainRecords builds libchain0 → libchain1 → ... → libchain{n-1}.
func chainRecords(abi ABI, n int) []linkage.Record {
	records := make([]linkage.Record, 0, n)
	for i := range n {
		soname := fmt.Sprintf("libchain%d.so", i)
		var needed []string
		if i+1 < n {
			needed = []string{fmt.Sprintf("libchain%d.so", i+1)}
		}
		records = append(records, lib(abi, "/lib/"+soname, soname, needed...))
	}
	slices.Reverse(records)
	return records
}
