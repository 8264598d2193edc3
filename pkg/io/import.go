package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

// ToResult rebuilds a result from its document form.
//
// The forward graph and registry are restored as stored, then the soname
// view is re-bound so library nodes are aliased again. The reverse graph is
// derived anew from the restored graph with the document's reverse kind; the
// stored reverse section is informational.
func ToResult(doc Document) (*linkgraph.Result, error) {
	if doc.Version != FormatVersion {
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat,
			"unsupported document version %d (want %d)", doc.Version, FormatVersion)
	}
	kind, err := linkgraph.ParseReverseKind(doc.ReverseKind)
	if err != nil {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "reverse_kind")
	}

	reg := linkgraph.NewRegistry()
	for _, b := range doc.Registry.Paths {
		reg.PathToIdentity[b.Path] = linkgraph.Identity{Soname: b.Soname, ABI: linkgraph.ABI(b.ABI)}
	}
	for _, b := range doc.Registry.Providers {
		reg.IdentityToPath[linkgraph.Identity{Soname: b.Soname, ABI: linkgraph.ABI(b.ABI)}] = b.Path
	}

	g := linkgraph.NewGraph()
	for _, ag := range doc.ABIs {
		if ag.ABI == "" {
			return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "ABI class without name")
		}
		abi := linkgraph.ABI(ag.ABI)
		seen := make(map[string]bool, len(ag.Objects))
		for _, obj := range ag.Objects {
			if obj.Path == "" {
				return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "%s: object without path", abi)
			}
			if seen[obj.Path] {
				return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "%s: duplicate object %s", abi, obj.Path)
			}
			seen[obj.Path] = true
			g.SetObject(abi, obj.Path, obj.Direct, obj.Deps)
		}
	}
	g.BindSonames(reg)

	res := linkgraph.NewResult(g, reg, kind)
	res.ID = doc.ID
	res.SnapshotHash = doc.SnapshotHash
	res.CreatedAt = doc.CreatedAt
	res.Stats.Added = doc.Stats.Added
	return res, nil
}

// ReadJSON decodes a JSON document from r into a result.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*linkgraph.Result, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "decode")
	}
	return ToResult(doc)
}

// UnmarshalJSON decodes a result from JSON bytes.
func UnmarshalJSON(data []byte) (*linkgraph.Result, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ImportJSON reads a JSON file at path and returns the decoded result.
func ImportJSON(path string) (*linkgraph.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadYAML decodes a YAML document from r into a result.
func ReadYAML(r io.Reader) (*linkgraph.Result, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "decode")
	}
	return ToResult(doc)
}
