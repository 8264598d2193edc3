package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

// Options configures DOT generation.
type Options struct {
	// ABI selects the ABI class to draw. It may be empty when the result
	// has exactly one ABI class.
	ABI string

	// Transitive draws the closed dependency sets instead of the direct
	// edges.
	Transitive bool

	// Root limits the drawing to one object and the libraries it loads.
	Root string
}

// ToDOT converts one ABI class of a result to Graphviz DOT.
//
// Objects are boxes labeled with their soname (libraries) or path
// (executables). Edges point from an object to the provider of each
// soname it needs; sonames without a provider become dashed grey nodes.
func ToDOT(res *linkgraph.Result, opts Options) (string, error) {
	abi, err := selectABI(res, opts.ABI)
	if err != nil {
		return "", err
	}
	objects, err := selectObjects(res, abi, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	fmt.Fprintf(&buf, "  label=%q;\n", fmt.Sprintf("%s (%s)", abi, edgeKind(opts.Transitive)))
	buf.WriteString("\n")

	for _, path := range objects {
		fmt.Fprintf(&buf, "  %q [%s];\n", path, strings.Join(objectAttrs(res, abi, path), ", "))
	}

	var unresolved []string
	seenUnresolved := make(map[string]bool)
	var edges bytes.Buffer
	for _, path := range objects {
		for _, s := range edgesOf(res, abi, path, opts.Transitive) {
			target, ok := res.Registry.Provider(abi, s)
			if !ok || !res.Forward.HasObject(abi, target) {
				target = unresolvedID(s)
				if !seenUnresolved[s] {
					seenUnresolved[s] = true
					unresolved = append(unresolved, s)
				}
			}
			fmt.Fprintf(&edges, "  %q -> %q;\n", path, target)
		}
	}
	for _, s := range unresolved {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey, fontcolor=black];\n",
			unresolvedID(s), s)
	}

	buf.WriteString("\n")
	buf.Write(edges.Bytes())
	buf.WriteString("}\n")
	return buf.String(), nil
}

func selectABI(res *linkgraph.Result, abi string) (linkgraph.ABI, error) {
	abis := res.Forward.ABIs()
	if abi == "" {
		if len(abis) != 1 {
			return "", lgerrors.New(lgerrors.ErrCodeInvalidABI, "result has %d ABI classes, choose one of %v", len(abis), abis)
		}
		return abis[0], nil
	}
	if !res.Forward.HasABI(linkgraph.ABI(abi)) {
		return "", lgerrors.Wrap(lgerrors.ErrCodeNotFound, linkgraph.ErrUnknownABI, "%q", abi)
	}
	return linkgraph.ABI(abi), nil
}

// selectObjects returns the objects to draw in first-seen order. With a
// root, that is the root plus the provider of every soname it loads.
func selectObjects(res *linkgraph.Result, abi linkgraph.ABI, opts Options) ([]string, error) {
	all := res.Forward.Objects(abi)
	if opts.Root == "" {
		return all, nil
	}
	deps, err := res.Deps(abi, opts.Root)
	if err != nil {
		return nil, err
	}
	keep := map[string]bool{opts.Root: true}
	for _, s := range deps {
		if p, ok := res.Registry.Provider(abi, s); ok {
			keep[p] = true
		}
	}
	var out []string
	for _, path := range all {
		if keep[path] {
			out = append(out, path)
		}
	}
	return out, nil
}

func edgesOf(res *linkgraph.Result, abi linkgraph.ABI, path string, transitive bool) []string {
	if transitive {
		deps, _ := res.Forward.Deps(abi, path)
		return deps
	}
	deps, _ := res.Forward.Direct(abi, path)
	return deps
}

func objectAttrs(res *linkgraph.Result, abi linkgraph.ABI, path string) []string {
	id, ok := res.Registry.Identity(path)
	if !ok || id.ABI != abi {
		return []string{fmt.Sprintf("label=%q", path)}
	}
	return []string{
		fmt.Sprintf("label=%q", id.Soname+"\n"+path),
		"fillcolor=\"#e8f0fe\"",
	}
}

func unresolvedID(soname string) string { return "soname:" + soname }

func edgeKind(transitive bool) string {
	if transitive {
		return "transitive"
	}
	return "direct"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a
// viewBox-only header so the drawing scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
