// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// AFS implements FS on top of an afs.Service. Plain paths are local files;
// anything with a scheme (mem://, gs://, s3://...) is delegated to afs.
type AFS struct {
	service afs.Service
}

// NewAFS wraps service. A nil service uses afs.New().
func NewAFS(service afs.Service) *AFS {
	if service == nil {
		service = afs.New()
	}
	return &AFS{service: service}
}

// ReadFile downloads the whole object at name.
func (a *AFS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := a.exists(ctx, name); err != nil {
		return nil, err
	}
	data, err := a.service.DownloadWithURL(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// ReadDir lists the direct children of name, excluding name itself.
func (a *AFS) ReadDir(ctx context.Context, name string) ([]Entry, error) {
	if err := a.exists(ctx, name); err != nil {
		return nil, err
	}
	objects, err := a.service.List(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}
	self := trimSlash(url.Path(name))
	entries := make([]Entry, 0, len(objects))
	for i, obj := range objects {
		// afs reports the listed directory itself, normally first.
		if obj.IsDir() && (trimSlash(url.Path(obj.URL())) == self || (i == 0 && obj.Name() == path.Base(self))) {
			continue
		}
		entries = append(entries, Entry{Name: obj.Name(), IsDir: obj.IsDir()})
	}
	return entries, nil
}

// Stat describes the object at name.
func (a *AFS) Stat(ctx context.Context, name string) (Entry, error) {
	if err := a.exists(ctx, name); err != nil {
		return Entry{}, err
	}
	obj, err := a.service.Object(ctx, name)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return Entry{Name: obj.Name(), IsDir: obj.IsDir()}, nil
}

// Canonical resolves symbolic links for local paths. Other schemes have no
// links and are returned unchanged.
func (a *AFS) Canonical(_ context.Context, name string) (string, error) {
	if !isLocal(name) {
		return name, nil
	}
	p := localPath(name)
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", name, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", name, err)
	}
	return abs, nil
}

// Join joins elements as a local path or as a URL, following the first element.
func (a *AFS) Join(elem ...string) string {
	if len(elem) == 0 {
		return ""
	}
	if isPlainPath(elem[0]) {
		return filepath.Join(elem...)
	}
	return url.Join(elem[0], elem[1:]...)
}

// Dir returns the parent of name.
func (a *AFS) Dir(name string) string {
	if isPlainPath(name) {
		return filepath.Dir(name)
	}
	parent, _ := url.Split(name, file.Scheme)
	return parent
}

// Resolve joins name onto base unless name is already absolute.
func (a *AFS) Resolve(base, name string) string {
	if !isLocal(name) || filepath.IsAbs(name) {
		return name
	}
	return a.Join(base, filepath.FromSlash(name))
}

func (a *AFS) exists(ctx context.Context, name string) error {
	ok, err := a.service.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}
	if !ok {
		return notFound(name)
	}
	return nil
}

// isPlainPath reports whether name is a local path without a scheme.
func isPlainPath(name string) bool { return !strings.Contains(name, "://") }

func isLocal(name string) bool {
	return !strings.Contains(name, "://") || strings.HasPrefix(name, file.Scheme+"://")
}

func localPath(name string) string {
	if strings.HasPrefix(name, file.Scheme+"://") {
		return url.Path(name)
	}
	return name
}

func trimSlash(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return path.Clean(p)
}
