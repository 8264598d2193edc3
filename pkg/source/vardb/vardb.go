// Package vardb reads linkage payloads from a Portage installed-package
// database.
//
// The database is a two-level directory tree, <root>/<category>/<package>,
// with one directory per installed package. Packages that install ELF
// objects carry a NEEDED.ELF.2 file whose lines are linkage records:
//
//	X86_64;/usr/bin/xz;;;liblzma.so.5,libc.so.6
//	X86_64;/usr/lib64/liblzma.so.5.4.5;liblzma.so.5;;libc.so.6
//
// [DB] implements [linkage.Feed]. Packages are listed sorted by
// "category/package" so repeated runs over an unchanged database produce
// identical snapshots.
package vardb

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkage"
)

const (
	// DefaultRoot is where Portage keeps the installed-package database.
	DefaultRoot = "/var/db/pkg"

	// NeededFile is the per-package file holding linkage records.
	NeededFile = "NEEDED.ELF.2"
)

// DB is a read-only view of an installed-package database.
type DB struct {
	root string
}

// Open returns a DB rooted at root, or at [DefaultRoot] when root is empty.
// The root must be an existing directory.
func Open(root string) (*DB, error) {
	if root == "" {
		root = DefaultRoot
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeFileNotFound, err, "package database %s", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidPath, "package database %s is not a directory", root)
	}
	return &DB{root: root}, nil
}

// Root returns the database directory.
func (db *DB) Root() string { return db.root }

// Packages lists every installed package as "category/package", sorted.
// Hidden entries and in-progress merges are ignored.
func (db *DB) Packages(ctx context.Context) ([]string, error) {
	cats, err := os.ReadDir(db.root)
	if err != nil {
		return nil, err
	}

	var pkgs []string
	for _, cat := range cats {
		if !cat.IsDir() || skipEntry(cat.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(filepath.Join(db.root, cat.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() && !skipEntry(e.Name()) {
				pkgs = append(pkgs, cat.Name()+"/"+e.Name())
			}
		}
	}
	slices.Sort(pkgs)
	return pkgs, nil
}

// Needed returns the contents of the package's NEEDED.ELF.2 file. A package
// that installs no ELF objects has no such file and yields an empty payload.
func (db *DB) Needed(ctx context.Context, pkg string) (string, error) {
	if err := lgerrors.ValidatePackageID(pkg); err != nil {
		return "", err
	}
	dir := filepath.Join(db.root, filepath.FromSlash(pkg))
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", lgerrors.New(lgerrors.ErrCodePackageNotFound, "package %s is not installed", pkg)
		}
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(dir, NeededFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// skipEntry reports whether a directory entry is not an installed package:
// dotfiles and Portage's -MERGING- staging directories.
func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-MERGING-")
}

var _ linkage.Feed = (*DB)(nil)
