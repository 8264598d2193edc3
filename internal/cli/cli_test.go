package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
)

const testManifest = `
[[package]]
name = "sys-libs/glibc-2.40"
needed = """
X86_64;/lib64/libc.so.6;libc.so.6;;linux-vdso.so.1
X86;/lib/libc.so.6;libc.so.6;;
"""

[[package]]
name = "app-arch/xz-utils-5.6.2"
needed = """
X86_64;/usr/lib64/liblzma.so.5.6.2;liblzma.so.5;;libc.so.6
X86_64;/usr/bin/xz;;;liblzma.so.5
X86;/usr/lib/liblzma.so.5.6.2;liblzma.so.5;;libc.so.6
"""
`

// runCLI executes the root command with isolated config and cache
// directories and returns everything written to stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var logs, out bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.toml")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildCommand(t *testing.T) {
	out, err := runCLI(t, "--manifest", writeManifest(t), "build")
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	for _, want := range []string{"Built linkage graph", "5 objects", "fresh", "abi classes", "linkgraph unresolved"} {
		if !strings.Contains(out, want) {
			t.Errorf("build output missing %q:\n%s", want, out)
		}
	}
}

func TestDepsCommand(t *testing.T) {
	manifest := writeManifest(t)

	out, err := runCLI(t, "--manifest", manifest, "--no-cache", "deps", "/usr/bin/xz")
	if err != nil {
		t.Fatalf("deps error: %v", err)
	}
	want := "\tliblzma.so.5 => /usr/lib64/liblzma.so.5.6.2\n" +
		"\tlibc.so.6 => /lib64/libc.so.6\n" +
		"\tlinux-vdso.so.1 => not found\n"
	if out != want {
		t.Errorf("deps output =\n%q\nwant\n%q", out, want)
	}

	out, err = runCLI(t, "--manifest", manifest, "--no-cache", "deps", "--direct", "--json", "/usr/bin/xz")
	if err != nil {
		t.Fatalf("deps --json error: %v", err)
	}
	var entries []depsEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode deps --json: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].ABI != "X86_64" || strings.Join(entries[0].Deps, ",") != "liblzma.so.5" {
		t.Errorf("deps --direct --json = %+v", entries)
	}

	// Libraries are queried like executables.
	out, err = runCLI(t, "--manifest", manifest, "--no-cache", "deps", "/lib64/libc.so.6")
	if err != nil || !strings.Contains(out, "linux-vdso.so.1") {
		t.Errorf("deps libc = %q, %v", out, err)
	}

	_, err = runCLI(t, "--manifest", manifest, "--no-cache", "deps", "/usr/bin/missing")
	if !lgerrors.Is(err, lgerrors.ErrCodeObjectNotFound) {
		t.Errorf("deps missing error = %v, want OBJECT_NOT_FOUND", err)
	}
	_, err = runCLI(t, "--manifest", manifest, "--no-cache", "deps", "--abi", "MIPS", "/usr/bin/xz")
	if !lgerrors.Is(err, lgerrors.ErrCodeNotFound) {
		t.Errorf("deps --abi MIPS error = %v, want NOT_FOUND", err)
	}
}

func TestRdepsCommand(t *testing.T) {
	manifest := writeManifest(t)

	out, err := runCLI(t, "--manifest", manifest, "--no-cache", "rdeps", "--abi", "X86_64", "libc.so.6")
	if err != nil {
		t.Fatalf("rdeps error: %v", err)
	}
	if out != "/usr/lib64/liblzma.so.5.6.2\n" {
		t.Errorf("rdeps direct = %q", out)
	}

	out, err = runCLI(t, "--manifest", manifest, "--no-cache", "--reverse", "transitive", "rdeps", "--abi", "X86_64", "libc.so.6")
	if err != nil {
		t.Fatalf("rdeps transitive error: %v", err)
	}
	if out != "/usr/lib64/liblzma.so.5.6.2\n/usr/bin/xz\n" {
		t.Errorf("rdeps transitive = %q", out)
	}

	out, err = runCLI(t, "--manifest", manifest, "--no-cache", "rdeps", "libc.so.6")
	if err != nil || !strings.Contains(out, "X86_64") || !strings.Contains(out, "/usr/lib/liblzma.so.5.6.2") {
		t.Errorf("rdeps across ABIs = %q, %v", out, err)
	}

	_, err = runCLI(t, "--manifest", manifest, "--no-cache", "rdeps", "libnope.so.1")
	if !lgerrors.Is(err, lgerrors.ErrCodeSonameNotFound) {
		t.Errorf("rdeps unknown error = %v, want SONAME_NOT_FOUND", err)
	}
}

func TestLibsAndUnresolvedCommands(t *testing.T) {
	manifest := writeManifest(t)

	out, err := runCLI(t, "--manifest", manifest, "--no-cache", "libs", "--json")
	if err != nil {
		t.Fatalf("libs error: %v", err)
	}
	var libs []libraryEntry
	if err := json.Unmarshal([]byte(out), &libs); err != nil {
		t.Fatalf("decode libs --json: %v", err)
	}
	if len(libs) != 4 {
		t.Errorf("libs = %+v, want 4 entries", libs)
	}

	out, err = runCLI(t, "--manifest", manifest, "--no-cache", "libs", "--abi", "X86")
	if err != nil || !strings.Contains(out, "/usr/lib/liblzma.so.5.6.2") || !strings.Contains(out, "2 libraries") {
		t.Errorf("libs table = %q, %v", out, err)
	}

	out, err = runCLI(t, "--manifest", manifest, "--no-cache", "unresolved")
	if err != nil {
		t.Fatalf("unresolved error: %v", err)
	}
	if out != "X86_64\n\tlinux-vdso.so.1\n" {
		t.Errorf("unresolved = %q", out)
	}
}

func TestExportAndGraphFlag(t *testing.T) {
	manifest := writeManifest(t)
	graph := filepath.Join(t.TempDir(), "graph.json")

	if _, err := runCLI(t, "--manifest", manifest, "export", "-o", graph); err != nil {
		t.Fatalf("export error: %v", err)
	}

	// Queries against the export need no package feed.
	out, err := runCLI(t, "--graph", graph, "--source", "vardb", "--root", "/nonexistent", "deps", "--direct", "/usr/bin/xz")
	if err != nil {
		t.Fatalf("deps --graph error: %v", err)
	}
	if !strings.Contains(out, "liblzma.so.5 => /usr/lib64/liblzma.so.5.6.2") {
		t.Errorf("deps --graph = %q", out)
	}

	out, err = runCLI(t, "--graph", graph, "export", "--format", "dot", "--abi", "X86")
	if err != nil || !strings.HasPrefix(out, "digraph") {
		t.Errorf("export dot = %q, %v", out, err)
	}

	if _, err := runCLI(t, "--graph", graph, "export", "--format", "png"); !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
		t.Errorf("export png error = %v, want INVALID_INPUT", err)
	}
}

func TestGraphFlagRejectsBuildOptions(t *testing.T) {
	graph := filepath.Join(t.TempDir(), "graph.json")
	if _, err := runCLI(t, "--manifest", writeManifest(t), "export", "-o", graph); err != nil {
		t.Fatalf("export error: %v", err)
	}

	tests := [][]string{
		{"--reverse", "transitive"},
		{"--drop-unresolved"},
		{"--parallel"},
		{"--refresh"},
	}
	for _, flags := range tests {
		t.Run(flags[0], func(t *testing.T) {
			args := append([]string{"--graph", graph}, flags...)
			args = append(args, "unresolved")
			_, err := runCLI(t, args...)
			if !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
				t.Fatalf("%v error = %v, want INVALID_INPUT", flags, err)
			}
			if !strings.Contains(err.Error(), flags[0]) {
				t.Errorf("error %q should name %s", err, flags[0])
			}
		})
	}
}

func TestSnapshotCommand(t *testing.T) {
	manifest := writeManifest(t)
	out, err := runCLI(t, "--manifest", manifest, "snapshot")
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}
	if !strings.Contains(out, "[[package.object]]") || !strings.Contains(out, `object = "/usr/bin/xz"`) {
		t.Errorf("snapshot output:\n%s", out)
	}

	// The snapshot is itself a valid manifest.
	again := filepath.Join(t.TempDir(), "again.toml")
	if err := os.WriteFile(again, []byte(out), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--manifest", again, "--no-cache", "deps", "/usr/bin/xz"); err != nil {
		t.Errorf("deps from re-captured snapshot error: %v", err)
	}
}

func TestConfigErrors(t *testing.T) {
	_, err := runCLI(t, "--reverse", "sideways", "build")
	if !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
		t.Errorf("--reverse sideways error = %v, want INVALID_INPUT", err)
	}
	_, err = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "build")
	if !lgerrors.Is(err, lgerrors.ErrCodeFileNotFound) {
		t.Errorf("--config missing error = %v, want FILE_NOT_FOUND", err)
	}
}
