package linkgraph_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/linkgraph/pkg/linkage"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

func ExampleBuild() {
	// prog links against libB, which links against libA
	feed := linkage.NewMapFeed().
		Add("dev-libs/liba", "X86_64;/usr/lib64/libA.so.1;libA.so.1;;").
		Add("dev-libs/libb", "X86_64;/usr/lib64/libB.so.1;libB.so.1;;libA.so.1").
		Add("app-misc/prog", "X86_64;/usr/bin/prog;;;libB.so.1")

	ctx := context.Background()
	snap, _ := linkage.Ingest(ctx, feed)
	res, _ := linkgraph.Build(ctx, snap, linkgraph.Options{})

	deps, _ := res.Deps("X86_64", "/usr/bin/prog")
	users, _ := res.Dependents("X86_64", "libA.so.1")
	fmt.Println("prog loads:", deps)
	fmt.Println("libA users:", users)
	fmt.Println("reverse:", res.Reverse.Kind)
	// Output:
	// prog loads: [libB.so.1 libA.so.1]
	// libA users: [/usr/lib64/libB.so.1]
	// reverse: direct
}

func ExampleGraph_BySoname() {
	records := []linkage.Record{
		{ABI: "X86_64", Object: "/usr/lib64/libz.so.1", Soname: "libz.so.1", Needed: []string{"libc.so.6"}},
	}
	reg := linkgraph.BuildRegistry(records)
	g := linkgraph.BuildDirect(records, reg)

	// Both views resolve to the same dependency set
	bySoname, _ := g.BySoname("X86_64", "libz.so.1")
	byPath, _ := g.ByPath("X86_64", "/usr/lib64/libz.so.1")
	bySoname.Add("ld-linux-x86-64.so.2")

	fmt.Println(byPath == bySoname)
	fmt.Println(byPath.Items())
	// Output:
	// true
	// [libc.so.6 ld-linux-x86-64.so.2]
}

func ExampleResult_Unresolved() {
	feed := linkage.NewMapFeed().
		Add("sys-libs/glibc", "X86_64;/lib64/libc.so.6;libc.so.6;;ld-linux-x86-64.so.2").
		Add("app-shells/bash", "X86_64;/bin/bash;;;libc.so.6,libtinfo.so.6")

	ctx := context.Background()
	snap, _ := linkage.Ingest(ctx, feed)
	res, _ := linkgraph.Build(ctx, snap, linkgraph.Options{})

	fmt.Println(res.Unresolved("X86_64"))
	// Output:
	// [ld-linux-x86-64.so.2 libtinfo.so.6]
}
