package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

// FromResult converts a result into its document form. Objects keep their
// first-seen order, registry entries are sorted.
func FromResult(res *linkgraph.Result) Document {
	doc := Document{
		Version:      FormatVersion,
		ID:           res.ID,
		SnapshotHash: res.SnapshotHash,
		CreatedAt:    res.CreatedAt,
		ReverseKind:  string(res.Reverse.Kind),
		Stats:        res.Stats,
	}

	rev := res.Reverse.Map()
	for _, abi := range res.Forward.ABIs() {
		ag := ABIGraph{ABI: string(abi), Reverse: rev[abi]}
		if ag.Reverse == nil {
			ag.Reverse = map[string][]string{}
		}
		for _, path := range res.Forward.Objects(abi) {
			direct, _ := res.Forward.Direct(abi, path)
			deps, _ := res.Forward.Deps(abi, path)
			obj := Object{Path: path, Direct: direct, Deps: deps}
			if id, ok := res.Registry.Identity(path); ok && id.ABI == abi {
				obj.Soname = id.Soname
			}
			ag.Objects = append(ag.Objects, obj)
		}
		doc.ABIs = append(doc.ABIs, ag)
	}

	for _, id := range res.Registry.Identities() {
		path, _ := res.Registry.Provider(id.ABI, id.Soname)
		doc.Registry.Providers = append(doc.Registry.Providers,
			Binding{ABI: string(id.ABI), Soname: id.Soname, Path: path})
	}
	for path, id := range res.Registry.PathToIdentity {
		doc.Registry.Paths = append(doc.Registry.Paths,
			Binding{ABI: string(id.ABI), Soname: id.Soname, Path: path})
	}
	slices.SortFunc(doc.Registry.Paths, func(a, b Binding) int {
		return strings.Compare(a.Path, b.Path)
	})
	return doc
}

// WriteJSON encodes a result as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(res *linkgraph.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromResult(res)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns the compact JSON form of a result, as stored in the
// cache.
func MarshalJSON(res *linkgraph.Result) ([]byte, error) {
	data, err := json.Marshal(FromResult(res))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ExportJSON writes a result to a JSON file at path.
func ExportJSON(res *linkgraph.Result, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteJSON(res, w) })
}

// WriteYAML encodes a result as YAML and writes it to w.
func WriteYAML(res *linkgraph.Result, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromResult(res)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// ExportYAML writes a result to a YAML file at path.
func ExportYAML(res *linkgraph.Result, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteYAML(res, w) })
}

func exportFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
