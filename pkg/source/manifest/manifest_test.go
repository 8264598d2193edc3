package manifest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkage"
)

const sample = `
[[package]]
name = "sys-libs/glibc-2.40"
needed = """
X86_64;/lib64/libc.so.6;libc.so.6;;ld-linux-x86-64.so.2
X86;/lib/libc.so.6;libc.so.6;;ld-linux.so.2
"""

[[package]]
name = "virtual/libc-1"

[[package]]
name = "app-arch/xz-utils-5.6.2"

  [[package.object]]
  abi = "X86_64"
  object = "/usr/lib64/liblzma.so.5.6.2"
  soname = "liblzma.so.5"
  needed = ["libc.so.6"]

  [[package.object]]
  abi = "X86_64"
  object = "/usr/bin/xz"
  needed = ["liblzma.so.5", "libc.so.6"]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	ctx := context.Background()

	pkgs, _ := m.Packages(ctx)
	want := []string{"sys-libs/glibc-2.40", "virtual/libc-1", "app-arch/xz-utils-5.6.2"}
	if !reflect.DeepEqual(pkgs, want) {
		t.Errorf("Packages() = %v, want %v", pkgs, want)
	}

	snap, err := linkage.Ingest(ctx, m)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if snap.PackageCount() != 2 || snap.Len() != 4 {
		t.Fatalf("snapshot = %d packages, %d records, want 2/4", snap.PackageCount(), snap.Len())
	}

	xz := snap.Records()[3]
	if xz.Object != "/usr/bin/xz" || xz.IsLibrary() || !reflect.DeepEqual(xz.Needed, []string{"liblzma.so.5", "libc.so.6"}) {
		t.Errorf("xz record = %+v", xz)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `[[package]`},
		{"missing name", "[[package]]\nneeded = \"\""},
		{"duplicate name", "[[package]]\nname = \"a/b\"\n[[package]]\nname = \"a/b\""},
		{"unknown key", "[[package]]\nname = \"a/b\"\nversion = \"1\""},
		{"missing abi", "[[package]]\nname = \"a/b\"\n[[package.object]]\nobject = \"/bin/x\""},
		{"separator in object", "[[package]]\nname = \"a/b\"\n[[package.object]]\nabi = \"X\"\nobject = \"/bin/a;b\""},
		{"separator in needed", "[[package]]\nname = \"a/b\"\n[[package.object]]\nabi = \"X\"\nobject = \"/bin/x\"\nneeded = [\"a;b\"]"},
		{"comma in needed", "[[package]]\nname = \"a/b\"\n[[package.object]]\nabi = \"X\"\nobject = \"/bin/x\"\nneeded = [\"liba.so,libb.so\"]"},
		{"comma in soname", "[[package]]\nname = \"a/b\"\n[[package.object]]\nabi = \"X\"\nobject = \"/lib/x\"\nsoname = \"liba.so,1\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if !lgerrors.Is(err, lgerrors.ErrCodeInvalidFormat) {
				t.Errorf("Parse() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err != nil {
		t.Errorf("Load() error: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !lgerrors.Is(err, lgerrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEncodeReingest(t *testing.T) {
	ctx := context.Background()
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	tests := []struct {
		name string
		feed linkage.Feed
	}{
		{"manifest", m},
		{"comma in path", linkage.NewMapFeed().
			Add("app-misc/foo-1", "X86_64;/usr/lib64/foo,bar/libfoo.so.1;libfoo.so.1;;libc.so.6")},
		{"relative path", linkage.NewMapFeed().
			Add("app-misc/foo-1", "X86;opt/bin/foo;;$ORIGIN/../lib;libfoo.so.1")},
		{"spaces kept", linkage.NewMapFeed().
			Add("app-misc/foo-1", "X86_64;/opt/My App/bin/foo ;;;libc.so.6, libm.so.6")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := linkage.Ingest(ctx, tt.feed)
			if err != nil {
				t.Fatalf("Ingest() error: %v", err)
			}
			data, err := Marshal(snap)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if !strings.Contains(string(data), "[[package.object]]") {
				t.Errorf("Marshal() output is not structured:\n%s", data)
			}

			again, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse(Marshal()) error: %v\n%s", err, data)
			}
			snap2, err := linkage.Ingest(ctx, again)
			if err != nil {
				t.Fatalf("Ingest() error: %v", err)
			}
			if snap2.Hash() != snap.Hash() {
				t.Errorf("re-ingested records = %+v, want %+v", snap2.Records(), snap.Records())
			}
		})
	}
}

func TestLoadExample(t *testing.T) {
	m, err := Load(filepath.Join("..", "..", "..", "examples", "snapshot.toml"))
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	snap, err := linkage.Ingest(context.Background(), m)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if snap.PackageCount() != 4 || snap.Len() != 11 {
		t.Errorf("snapshot = %d packages, %d records, want 4/11", snap.PackageCount(), snap.Len())
	}
}
