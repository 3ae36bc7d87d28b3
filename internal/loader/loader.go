// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/loadgraph/loadgraph/pkg/contentaddr"
	"github.com/loadgraph/loadgraph/pkg/resolver"
	"github.com/loadgraph/loadgraph/pkg/types"
	"github.com/loadgraph/loadgraph/pkg/vfs"
)

var (
	importRe = regexp.MustCompile(`(?:^|[\s;(])(?:using|import)\s+([A-Za-z_][A-Za-z0-9_!]*(?:\s*,\s*[A-Za-z_][A-Za-z0-9_!]*)*)`)

	// builtin modules are always available and never resolved.
	builtin = map[types.PackageName]bool{"Base": true, "Core": true, "Main": true}
)

type (
	// Importer loads a package as imported from a context. *resolver.Resolver
	// satisfies it.
	Importer interface {
		Load(ctx context.Context, from types.Identity, name types.PackageName) (resolver.Handle, error)
	}

	// Source is the handle produced for a loaded package.
	Source struct {
		Location types.Location
		Hash     types.ContentHash
		Size     int
		// Imports lists the names the source imports, in order of appearance.
		Imports []types.PackageName
		// Deps holds the loaded imports, parallel to Imports. It is empty when
		// the loader has no Importer.
		Deps []*Source
	}

	// Loader reads entry files from a filesystem.
	Loader struct {
		fsys     vfs.FileReader
		hash     contentaddr.HashFunc
		importer Importer
		logger   *log.Logger
	}

	// Option configures a Loader.
	Option func(*Loader)
)

// WithHash sets the hash used to fingerprint sources. Defaults to SHA-1.
func WithHash(h contentaddr.HashFunc) Option {
	return func(l *Loader) {
		if h != nil {
			l.hash = h
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Loader reading from fsys.
func New(fsys vfs.FileReader, opts ...Option) *Loader {
	l := &Loader{fsys: fsys, hash: contentaddr.SHA1, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetImporter makes the loader follow imports through imp. It must be called
// before the first Load, typically with the resolver the loader was given to.
func (l *Loader) SetImporter(imp Importer) {
	l.importer = imp
}

// Load implements resolver.Loader.
func (l *Loader) Load(ctx context.Context, loc types.Location) (resolver.Handle, error) {
	data, err := l.fsys.ReadFile(ctx, loc.String())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}

	src := &Source{
		Location: loc,
		Hash:     l.hash(data),
		Size:     len(data),
		Imports:  Imports(data),
	}
	l.logger.Debug("loaded source", "location", loc, "hash", src.Hash, "imports", len(src.Imports))

	if l.importer == nil {
		return src, nil
	}

	from := resolver.Importer(ctx)
	for _, name := range src.Imports {
		h, err := l.importer.Load(ctx, from, name)
		if err != nil {
			return nil, fmt.Errorf("%s: import %s: %w", loc, name, err)
		}
		dep, _ := h.(*Source)
		src.Deps = append(src.Deps, dep)
	}
	return src, nil
}

// Imports returns the package names brought in by using and import
// statements in data, deduplicated in order of first appearance. Relative
// imports and the builtin modules are skipped.
func Imports(data []byte) []types.PackageName {
	var names []types.PackageName
	for line := range strings.Lines(string(data)) {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, m := range importRe.FindAllStringSubmatch(line, -1) {
			for part := range strings.SplitSeq(m[1], ",") {
				name := types.PackageName(strings.TrimSpace(part))
				if builtin[name] || slices.Contains(names, name) {
					continue
				}
				names = append(names, name)
			}
		}
	}
	return names
}
