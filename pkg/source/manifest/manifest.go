// Package manifest reads and writes TOML snapshots of linkage records.
//
// A manifest lists packages in processing order. Each package carries its
// records either as a raw NEEDED payload or as structured object tables;
// both forms may be mixed within one package:
//
//	[[package]]
//	name = "sys-libs/zlib-1.3.1"
//	needed = """
//	X86_64;/lib64/libz.so.1.3.1;libz.so.1;;libc.so.6
//	"""
//
//	[[package]]
//	name = "app-arch/xz-utils-5.6.2"
//
//	  [[package.object]]
//	  abi = "X86_64"
//	  object = "/usr/bin/xz"
//	  needed = ["liblzma.so.5", "libc.so.6"]
//
// A loaded [Manifest] implements [linkage.Feed]. [Encode] writes a snapshot
// back out in structured form, so the state of a live system can be captured
// once and analyzed elsewhere.
package manifest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkage"
)

// Manifest is a linkage feed decoded from TOML.
type Manifest struct {
	feed *linkage.MapFeed
}

type document struct {
	Package []entry `toml:"package"`
}

type entry struct {
	Name    string           `toml:"name"`
	Needed  string           `toml:"needed"`
	Objects []linkage.Record `toml:"object"`
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a manifest from TOML bytes.
//
// Every package needs a valid, unique name. Structured objects are checked
// field by field and rendered into payload lines, so they go through the
// same record parser as raw payloads during ingestion.
func Parse(data []byte) (*Manifest, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "decode manifest")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "unknown manifest key %q", undecoded[0].String())
	}

	m := &Manifest{feed: linkage.NewMapFeed()}
	seen := make(map[string]bool, len(doc.Package))
	for i, e := range doc.Package {
		if err := lgerrors.ValidatePackageID(e.Name); err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "package #%d", i+1)
		}
		if seen[e.Name] {
			return nil, lgerrors.New(lgerrors.ErrCodeInvalidFormat, "package %s listed twice", e.Name)
		}
		seen[e.Name] = true

		payload, err := e.payload()
		if err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidFormat, err, "package %s", e.Name)
		}
		m.feed.Add(e.Name, payload)
	}
	return m, nil
}

func (e entry) payload() (string, error) {
	var b strings.Builder
	if s := strings.Trim(e.Needed, "\r\n"); strings.TrimSpace(s) != "" {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	for _, obj := range e.Objects {
		if err := validateObject(obj); err != nil {
			return "", err
		}
		b.WriteString(obj.String())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// validateObject rejects only what would corrupt the payload line an object
// is rendered into. Paths and sonames are otherwise taken as given.
func validateObject(obj linkage.Record) error {
	if obj.ABI == "" {
		return lgerrors.New(lgerrors.ErrCodeInvalidABI, "object %q has no abi", obj.Object)
	}
	if obj.Object == "" {
		return lgerrors.New(lgerrors.ErrCodeInvalidPath, "object path cannot be empty")
	}
	fields := []struct {
		name, value, separators string
	}{
		{"abi", string(obj.ABI), lineSeparators},
		{"object", obj.Object, lineSeparators},
		{"soname", obj.Soname, listSeparators},
		{"rpath", obj.RPath, lineSeparators},
	}
	for _, so := range obj.Needed {
		fields = append(fields, struct{ name, value, separators string }{"needed", so, listSeparators})
	}
	for _, f := range fields {
		if strings.ContainsAny(f.value, f.separators) {
			return lgerrors.New(lgerrors.ErrCodeInvalidInput, "%s %q of %s contains a record separator", f.name, f.value, obj.Object)
		}
	}
	return nil
}

const (
	lineSeparators = ";\r\n"
	listSeparators = lineSeparators + ","
)

// Packages returns package names in manifest order.
func (m *Manifest) Packages(ctx context.Context) ([]string, error) {
	return m.feed.Packages(ctx)
}

// Needed returns the payload of one package.
func (m *Manifest) Needed(ctx context.Context, pkg string) (string, error) {
	return m.feed.Needed(ctx, pkg)
}

// Encode writes snap as a structured manifest.
func Encode(w io.Writer, snap *linkage.Snapshot) error {
	doc := struct {
		Package []linkage.Package `toml:"package"`
	}{Package: snap.Packages()}
	return toml.NewEncoder(w).Encode(doc)
}

// Marshal returns the structured manifest form of snap.
func Marshal(snap *linkage.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ linkage.Feed = (*Manifest)(nil)
