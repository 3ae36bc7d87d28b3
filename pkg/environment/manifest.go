// SPDX-License-Identifier: MPL-2.0

package environment

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/loadgraph/loadgraph/pkg/contentaddr"
	"github.com/loadgraph/loadgraph/pkg/manifest"
	"github.com/loadgraph/loadgraph/pkg/types"
	"github.com/loadgraph/loadgraph/pkg/vfs"

	"github.com/charmbracelet/log"
)

type (
	// ManifestEnvironment is the environment described by a project record
	// and, when present, its manifest.
	ManifestEnvironment struct {
		fsys         vfs.FS
		projectFile  string
		project      *manifest.Project
		manifestFile string
		manifest     *manifest.Manifest
		storageRoots []string
		ext          string
		logger       *log.Logger

		paths memo[pathKey, pathLookup]
	}

	pathKey struct {
		id   types.Identity
		name types.PackageName
	}

	pathLookup struct {
		loc   types.Location
		found bool
	}
)

// LoadManifestEnvironment reads the project record at projectFile and its
// manifest, if any. Parse failures are returned as *manifest.ParseError.
func LoadManifestEnvironment(ctx context.Context, fsys vfs.FS, projectFile string, opts ...Option) (*ManifestEnvironment, error) {
	project, err := manifest.LoadProject(ctx, fsys, projectFile)
	if err != nil {
		return nil, fmt.Errorf("load project record: %w", err)
	}
	manifestFile, ok, err := manifest.FindManifestFile(ctx, fsys, projectFile, project)
	if err != nil {
		return nil, fmt.Errorf("find manifest: %w", err)
	}
	var m *manifest.Manifest
	if ok {
		if m, err = manifest.LoadManifest(ctx, fsys, manifestFile); err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
	} else {
		manifestFile = ""
	}
	return NewManifestEnvironment(fsys, projectFile, project, manifestFile, m, opts...), nil
}

// NewManifestEnvironment builds an environment from already parsed records.
// m may be nil when the project has no manifest; manifestFile is then ignored.
func NewManifestEnvironment(fsys vfs.FS, projectFile string, project *manifest.Project, manifestFile string, m *manifest.Manifest, opts ...Option) *ManifestEnvironment {
	o := newOptions(opts)
	if project == nil {
		project = &manifest.Project{}
	}
	project = project.Clone()
	if m == nil {
		manifestFile = ""
	}
	return &ManifestEnvironment{
		fsys:         fsys,
		projectFile:  projectFile,
		project:      project,
		manifestFile: manifestFile,
		manifest:     m,
		storageRoots: o.storageRoots,
		ext:          o.sourceExt,
		logger:       o.logger,
	}
}

// Project returns a copy of the environment's project record.
func (e *ManifestEnvironment) Project() *manifest.Project { return e.project.Clone() }

// ProjectFile returns the path of the project record.
func (e *ManifestEnvironment) ProjectFile() string { return e.projectFile }

// Manifest returns the parsed manifest, or nil when the project has none.
func (e *ManifestEnvironment) Manifest() *manifest.Manifest { return e.manifest }

// ManifestFile returns the manifest path, or "" when the project has none.
func (e *ManifestEnvironment) ManifestFile() string { return e.manifestFile }

// StorageRoots returns the ordered storage roots.
func (e *ManifestEnvironment) StorageRoots() []string { return slices.Clone(e.storageRoots) }

// Describe reports the project record backing the environment.
func (e *ManifestEnvironment) Describe() Description {
	return Description{Kind: KindManifest, Path: e.projectFile}
}

// Root resolves name among the project itself and its direct dependencies.
// The project's own name wins over a dependency of the same name.
func (e *ManifestEnvironment) Root(_ context.Context, name types.PackageName) (types.Identity, bool, error) {
	if e.project.Name != "" && e.project.Name == name {
		return e.project.Identity, true, nil
	}
	if id, ok := e.project.Dep(name); ok {
		return id, true, nil
	}
	return types.NilIdentity, false, nil
}

// Graph resolves name among the dependencies of the manifest stanza for
// from. The project's own code imports its direct dependencies.
func (e *ManifestEnvironment) Graph(_ context.Context, from types.Identity, name types.PackageName) (types.Identity, bool, error) {
	if e.isProject(from) {
		id, ok := e.project.Dep(name)
		return id, ok, nil
	}
	if e.manifest == nil {
		return types.NilIdentity, false, nil
	}
	s, ok := e.manifest.Stanza(from)
	if !ok {
		return types.NilIdentity, false, nil
	}
	id, ok := s.Deps[name]
	return id, ok, nil
}

// Deps lists the project's roots for the nil identity, else the
// dependencies of the stanza for from.
func (e *ManifestEnvironment) Deps(_ context.Context, from types.Identity) (map[types.PackageName]types.Identity, error) {
	deps := make(map[types.PackageName]types.Identity)
	if from.IsNil() {
		maps.Copy(deps, e.project.Deps)
		if e.project.Name != "" {
			deps[e.project.Name] = e.project.Identity
		}
		return deps, nil
	}
	if e.isProject(from) {
		maps.Copy(deps, e.project.Deps)
		return deps, nil
	}
	if e.manifest != nil {
		if s, ok := e.manifest.Stanza(from); ok {
			maps.Copy(deps, s.Deps)
		}
	}
	return deps, nil
}

// Path returns the entry point of package id known as name: the project's
// own entry point, a stanza's explicit path, or the first storage root
// holding the stanza's content-addressed directory.
func (e *ManifestEnvironment) Path(ctx context.Context, id types.Identity, name types.PackageName) (types.Location, bool, error) {
	r, err := e.paths.get(ctx, pathKey{id: id, name: name}, func(ctx context.Context) (pathLookup, error) {
		loc, ok, err := e.path(ctx, id, name)
		return pathLookup{loc: loc, found: ok}, err
	})
	return r.loc, r.found, err
}

func (e *ManifestEnvironment) path(ctx context.Context, id types.Identity, name types.PackageName) (types.Location, bool, error) {
	projectDir := e.fsys.Dir(e.projectFile)
	if e.project.Name != "" && name == e.project.Name && id == e.project.Identity {
		if e.project.EntryFile != "" {
			return types.Location(e.fsys.Resolve(projectDir, e.project.EntryFile)), true, nil
		}
		return types.Location(e.fsys.Join(projectDir, srcDir, name.String()+e.ext)), true, nil
	}

	if e.manifest == nil {
		return "", false, nil
	}
	s, ok := e.manifest.Stanza(id)
	if !ok {
		return "", false, nil
	}

	switch {
	case s.Path != "":
		p := e.fsys.Resolve(e.fsys.Dir(e.manifestFile), s.Path)
		return e.entryAt(ctx, p, name)
	case s.ContentHash != "":
		slug := contentaddr.Slug(id, s.ContentHash)
		for _, root := range e.storageRoots {
			loc, ok, err := e.entryAt(ctx, e.fsys.Join(root, packagesDir, name.String(), slug), name)
			if err != nil || ok {
				return loc, ok, err
			}
		}
		e.logger.Debug("package not installed in any storage root", "name", name, "identity", id, "slug", slug)
		return "", false, nil
	default:
		e.logger.Debug("stanza has neither path nor content hash", "name", name, "identity", id)
		return "", false, nil
	}
}

func (e *ManifestEnvironment) isProject(id types.Identity) bool {
	return e.project.HasIdentity() && id == e.project.Identity
}

// entryAt returns p itself when it is a file, or its conventional entry
// point when it is a directory. A missing p has no entry.
func (e *ManifestEnvironment) entryAt(ctx context.Context, p string, name types.PackageName) (types.Location, bool, error) {
	st, err := e.fsys.Stat(ctx, p)
	if err != nil {
		if vfs.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if !st.IsDir {
		return types.Location(p), true, nil
	}
	return types.Location(e.fsys.Join(p, srcDir, name.String()+e.ext)), true, nil
}
