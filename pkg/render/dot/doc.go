// Package dot draws linkage graphs with Graphviz.
//
// [ToDOT] produces DOT source for one ABI class of a result, either the
// direct edges each object was recorded with or the closed sets. A whole
// system is usually too large to read, so [Options].Root narrows the
// drawing to one object and everything it loads:
//
//	src, err := dot.ToDOT(res, dot.Options{ABI: "X86_64", Root: "/usr/bin/xz"})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz, so
// no dot binary is needed.
package dot
