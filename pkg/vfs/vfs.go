// SPDX-License-Identifier: MPL-2.0

// Package vfs defines the filesystem capability the loadgraph engine reads
// project records, manifests and package directories through.
//
// The engine never calls the operating system directly. Two implementations
// are provided: [AFS], backed by github.com/viant/afs (local paths and any
// URL scheme afs understands, including mem:// for tests), and [IOFS], backed
// by an io/fs.FS such as an embedded tree or fstest.MapFS.
package vfs

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) when a path does not exist.
var ErrNotFound = errors.New("not found")

type (
	// Entry describes one filesystem object.
	Entry struct {
		Name  string
		IsDir bool
	}

	// FileReader reads whole files.
	FileReader interface {
		ReadFile(ctx context.Context, name string) ([]byte, error)
	}

	// DirLister lists the direct children of a directory.
	DirLister interface {
		ReadDir(ctx context.Context, name string) ([]Entry, error)
	}

	// FS is the full capability used by environments.
	FS interface {
		FileReader
		DirLister

		// Stat describes name, or returns an error wrapping ErrNotFound.
		Stat(ctx context.Context, name string) (Entry, error)
		// Canonical returns name with symbolic links resolved.
		Canonical(ctx context.Context, name string) (string, error)
		// Join joins path elements with the separator of this filesystem.
		Join(elem ...string) string
		// Dir returns all but the last element of name.
		Dir(name string) string
		// Resolve returns name unchanged if it is absolute, else name joined onto base.
		Resolve(base, name string) string
	}
)

// IsNotFound reports whether err means the path does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func notFound(name string) error {
	return fmt.Errorf("%s: %w", name, ErrNotFound)
}

// IsFile reports whether name exists and is not a directory.
// Errors other than ErrNotFound are returned.
func IsFile(ctx context.Context, fsys FS, name string) (bool, error) {
	e, err := fsys.Stat(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !e.IsDir, nil
}

// IsDir reports whether name exists and is a directory.
// Errors other than ErrNotFound are returned.
func IsDir(ctx context.Context, fsys FS, name string) (bool, error) {
	e, err := fsys.Stat(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return e.IsDir, nil
}
