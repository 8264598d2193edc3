package linkage

import (
	"context"
	"errors"
	"testing"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
)

type failingFeed struct {
	MapFeed
	listErr error
}

func (f *failingFeed) Packages(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MapFeed.Packages(ctx)
}

func TestIngest(t *testing.T) {
	feed := NewMapFeed().
		Add("sys-libs/glibc", "X86_64;/lib64/libc.so.6;libc.so.6;;ld-linux-x86-64.so.2").
		Add("virtual/libc", "").
		Add("app-shells/bash", "X86_64;/bin/bash;;;libc.so.6\nX86_64;/bin/sh;;;libc.so.6")

	snap, err := Ingest(context.Background(), feed)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if snap.PackageCount() != 2 {
		t.Errorf("PackageCount() = %d, want 2 (empty payload skipped)", snap.PackageCount())
	}
	if snap.Len() != 3 {
		t.Errorf("Len() = %d, want 3", snap.Len())
	}

	recs := snap.Records()
	if recs[0].Object != "/lib64/libc.so.6" || recs[2].Object != "/bin/sh" {
		t.Errorf("Records() order = %v, want feed order", recs)
	}
}

func TestIngestMalformed(t *testing.T) {
	feed := NewMapFeed().
		Add("sys-libs/glibc", "X86_64;/lib64/libc.so.6;libc.so.6;;").
		Add("sys-apps/broken", "X86_64;/bin/x")

	_, err := Ingest(context.Background(), feed)
	if !lgerrors.Is(err, lgerrors.ErrCodeInvalidRecord) {
		t.Fatalf("Ingest() error = %v, want INVALID_RECORD", err)
	}
}

func TestIngestFeedErrors(t *testing.T) {
	listErr := errors.New("database locked")
	_, err := Ingest(context.Background(), &failingFeed{MapFeed: *NewMapFeed(), listErr: listErr})
	if !errors.Is(err, listErr) {
		t.Errorf("Ingest() error = %v, want wrapped %v", err, listErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Ingest(ctx, NewMapFeed().Add("a", "X86_64;/bin/a;;;"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ingest(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestMapFeed(t *testing.T) {
	ctx := context.Background()
	feed := NewMapFeed().Add("b", "1").Add("a", "2").Add("b", "3")

	ids, _ := feed.Packages(ctx)
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("Packages() = %v, want [b a]", ids)
	}
	if p, _ := feed.Needed(ctx, "b"); p != "3" {
		t.Errorf("Needed(b) = %q, want replaced payload", p)
	}
	if _, err := feed.Needed(ctx, "missing"); !lgerrors.Is(err, lgerrors.ErrCodePackageNotFound) {
		t.Errorf("Needed(missing) error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestSnapshotHash(t *testing.T) {
	rec := Record{ABI: "X86_64", Object: "/bin/a", Needed: []string{"libc.so.6"}}
	a := NewSnapshot(Package{ID: "p", Records: []Record{rec}})
	b := NewSnapshot(Package{ID: "p", Records: []Record{rec}}, Package{ID: "empty"})
	if a.Hash() != b.Hash() {
		t.Error("Hash() should ignore packages without records")
	}

	rec.Needed = []string{"libm.so.6"}
	c := NewSnapshot(Package{ID: "p", Records: []Record{rec}})
	if a.Hash() == c.Hash() {
		t.Error("Hash() should change when records change")
	}
	if len(a.Hash()) != 64 {
		t.Errorf("Hash length = %d, want 64", len(a.Hash()))
	}
}

func TestSnapshotIsolation(t *testing.T) {
	needed := []string{"libc.so.6"}
	snap := NewSnapshot(Package{ID: "p", Records: []Record{{ABI: "X86_64", Object: "/bin/a", Needed: needed}}})
	needed[0] = "mutated"
	if got := snap.Records()[0].Needed[0]; got != "libc.so.6" {
		t.Errorf("snapshot record changed to %q after caller mutation", got)
	}
}
