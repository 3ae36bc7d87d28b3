// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// IOFS implements FS over an io/fs.FS. Names are slash-separated and
// relative to the root of the wrapped filesystem; io/fs has no symbolic
// links, so Canonical only cleans the name.
type IOFS struct {
	fsys fs.FS
}

// NewIOFS wraps fsys.
func NewIOFS(fsys fs.FS) *IOFS {
	return &IOFS{fsys: fsys}
}

// ReadFile reads the named file.
func (i *IOFS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(i.fsys, clean(name))
	if err != nil {
		return nil, mapErr(name, err)
	}
	return data, nil
}

// ReadDir lists the named directory.
func (i *IOFS) ReadDir(ctx context.Context, name string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := fs.ReadDir(i.fsys, clean(name))
	if err != nil {
		return nil, mapErr(name, err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return entries, nil
}

// Stat describes the named object.
func (i *IOFS) Stat(ctx context.Context, name string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	info, err := fs.Stat(i.fsys, clean(name))
	if err != nil {
		return Entry{}, mapErr(name, err)
	}
	return Entry{Name: info.Name(), IsDir: info.IsDir()}, nil
}

// Canonical returns the cleaned name after checking that it exists.
func (i *IOFS) Canonical(ctx context.Context, name string) (string, error) {
	if _, err := i.Stat(ctx, name); err != nil {
		return "", err
	}
	return clean(name), nil
}

// Join joins elements with forward slashes.
func (i *IOFS) Join(elem ...string) string { return path.Join(elem...) }

// Dir returns the parent of name.
func (i *IOFS) Dir(name string) string { return path.Dir(name) }

// Resolve joins name onto base. io/fs names are never absolute.
func (i *IOFS) Resolve(base, name string) string {
	return path.Join(base, strings.TrimPrefix(name, "/"))
}

func clean(name string) string {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	if name == "" {
		return "."
	}
	return name
}

func mapErr(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(name)
	}
	return fmt.Errorf("%s: %w", name, err)
}
