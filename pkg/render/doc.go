// Package render groups the visual outputs of a linkage graph.
//
// The [dot] subpackage writes one ABI partition as Graphviz DOT and lays it
// out as SVG. JSON and YAML exports live in the io package since they carry
// the complete result rather than a drawing.
//
// [dot]: github.com/matzehuels/linkgraph/pkg/render/dot
package render
