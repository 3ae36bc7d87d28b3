// SPDX-License-Identifier: MPL-2.0

package environment

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/loadgraph/loadgraph/pkg/manifest"
	"github.com/loadgraph/loadgraph/pkg/types"
	"github.com/loadgraph/loadgraph/pkg/vfs"

	"github.com/charmbracelet/log"
)

const (
	// IdentityDeclared marks a unit whose project record declares a uuid.
	IdentityDeclared IdentitySource = "declared"
	// IdentityDerived marks a unit whose identity is derived from its project record path.
	IdentityDerived IdentitySource = "derived"
	// IdentityNone marks a unit without a project record.
	IdentityNone IdentitySource = "none"
)

type (
	// IdentitySource records how a unit obtained its identity.
	IdentitySource string

	// Unit is one code unit found in a package directory.
	Unit struct {
		// Name is the unit's name, taken from the directory entry.
		Name types.PackageName
		// Identity is the declared, derived or nil identity of the unit.
		Identity types.Identity
		// Source records which tier produced Identity.
		Source IdentitySource
		// Entry is the unit's entry-point file.
		Entry types.Location
		// ProjectFile is the unit's project record ("" when it has none).
		ProjectFile string
		// Deps are the direct dependencies declared by the project record.
		Deps map[types.PackageName]types.Identity
	}

	// DirectoryEnvironment is the environment derived from a plain directory
	// of code units. A unit X is recognized by one of the entry shapes
	// X<ext>, X/src/X<ext> and X<ext>/src/X<ext>, tried in that order.
	DirectoryEnvironment struct {
		fsys   vfs.FS
		dir    string
		ext    string
		logger *log.Logger

		units memo[types.PackageName, unitLookup]
		scans memo[struct{}, []Unit]
	}

	unitLookup struct {
		unit  Unit
		found bool
	}
)

// String returns the string representation of the IdentitySource.
func (s IdentitySource) String() string { return string(s) }

// HasProject reports whether the unit carries a project record.
func (u Unit) HasProject() bool { return u.ProjectFile != "" }

// NewDirectoryEnvironment returns the environment of the code units in dir.
// Nothing is read until the first lookup.
func NewDirectoryEnvironment(fsys vfs.FS, dir string, opts ...Option) *DirectoryEnvironment {
	o := newOptions(opts)
	return &DirectoryEnvironment{
		fsys:   fsys,
		dir:    dir,
		ext:    o.sourceExt,
		logger: o.logger,
	}
}

// Dir returns the scanned directory.
func (d *DirectoryEnvironment) Dir() string { return d.dir }

// Describe reports the directory backing the environment.
func (d *DirectoryEnvironment) Describe() Description {
	return Description{Kind: KindDirectory, Path: d.dir}
}

// Root resolves name to the identity of the unit called name.
func (d *DirectoryEnvironment) Root(ctx context.Context, name types.PackageName) (types.Identity, bool, error) {
	u, ok, err := d.Unit(ctx, name)
	if err != nil || !ok {
		return types.NilIdentity, false, err
	}
	return u.Identity, true, nil
}

// Graph resolves name among the declared dependencies of the unit whose
// identity is from. Only units with a project record have graph entries, so
// answering requires the full scan on first use.
func (d *DirectoryEnvironment) Graph(ctx context.Context, from types.Identity, name types.PackageName) (types.Identity, bool, error) {
	if from.IsNil() {
		return types.NilIdentity, false, nil
	}
	units, err := d.Scan(ctx)
	if err != nil {
		return types.NilIdentity, false, err
	}
	for _, u := range units {
		if u.Identity != from || !u.HasProject() {
			continue
		}
		id, ok := u.Deps[name]
		return id, ok, nil
	}
	return types.NilIdentity, false, nil
}

// Deps lists every unit for the nil identity, else the declared
// dependencies of the unit whose identity is from.
func (d *DirectoryEnvironment) Deps(ctx context.Context, from types.Identity) (map[types.PackageName]types.Identity, error) {
	units, err := d.Scan(ctx)
	if err != nil {
		return nil, err
	}
	deps := make(map[types.PackageName]types.Identity)
	for _, u := range units {
		switch {
		case from.IsNil():
			deps[u.Name] = u.Identity
		case u.Identity == from && u.HasProject():
			maps.Copy(deps, u.Deps)
			return deps, nil
		}
	}
	return deps, nil
}

// Path returns the entry point of the unit called name, provided its
// identity is id.
func (d *DirectoryEnvironment) Path(ctx context.Context, id types.Identity, name types.PackageName) (types.Location, bool, error) {
	u, ok, err := d.Unit(ctx, name)
	if err != nil || !ok || u.Identity != id {
		return "", false, err
	}
	return u.Entry, true, nil
}

// Unit probes the directory for the unit called name. The result is
// memoized, so each name is probed at most once.
func (d *DirectoryEnvironment) Unit(ctx context.Context, name types.PackageName) (Unit, bool, error) {
	r, err := d.units.get(ctx, name, func(ctx context.Context) (unitLookup, error) {
		u, ok, err := d.probe(ctx, name)
		return unitLookup{unit: u, found: ok}, err
	})
	return r.unit, r.found, err
}

// Scan lists every unit of the directory, sorted by name. A missing or
// unreadable directory has no units. The listing is computed once.
func (d *DirectoryEnvironment) Scan(ctx context.Context) ([]Unit, error) {
	return d.scans.get(ctx, struct{}{}, d.scan)
}

func (d *DirectoryEnvironment) scan(ctx context.Context) ([]Unit, error) {
	entries, err := d.fsys.ReadDir(ctx, d.dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Debug("package directory not readable", "dir", d.dir, "err", err)
		return []Unit{}, nil
	}

	var names []types.PackageName
	for _, e := range entries {
		base := e.Name
		if !e.IsDir && !strings.HasSuffix(base, d.ext) {
			continue
		}
		name := types.PackageName(strings.TrimSuffix(base, d.ext))
		if name.Validate() != nil || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	units := make([]Unit, 0, len(names))
	for _, name := range names {
		u, ok, err := d.Unit(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			units = append(units, u)
		}
	}
	d.logger.Debug("scanned package directory", "dir", d.dir, "units", len(units))
	return units, nil
}

func (d *DirectoryEnvironment) probe(ctx context.Context, name types.PackageName) (Unit, bool, error) {
	file := d.fsys.Join(d.dir, name.String()+d.ext)
	ok, err := vfs.IsFile(ctx, d.fsys, file)
	if err != nil {
		return Unit{}, false, err
	}
	if ok {
		return Unit{Name: name, Source: IdentityNone, Entry: types.Location(file)}, true, nil
	}

	for _, base := range []string{name.String(), name.String() + d.ext} {
		u, ok, err := d.probeDir(ctx, name, d.fsys.Join(d.dir, base))
		if err != nil || ok {
			return u, ok, err
		}
	}
	return Unit{}, false, nil
}

// probeDir checks one candidate unit directory.
func (d *DirectoryEnvironment) probeDir(ctx context.Context, name types.PackageName, dir string) (Unit, bool, error) {
	if ok, err := vfs.IsDir(ctx, d.fsys, dir); err != nil || !ok {
		return Unit{}, false, err
	}

	projectFile, hasProject, err := manifest.FindProjectFile(ctx, d.fsys, dir)
	if err != nil {
		return Unit{}, false, err
	}

	u := Unit{
		Name:   name,
		Source: IdentityNone,
		Entry:  types.Location(d.fsys.Join(dir, srcDir, name.String()+d.ext)),
	}
	if hasProject {
		project, err := manifest.LoadProject(ctx, d.fsys, projectFile)
		if err != nil {
			return Unit{}, false, err
		}
		if project.Name != "" && project.Name != name {
			d.logger.Debug("project name does not match unit", "dir", dir, "name", name, "project", project.Name)
			return Unit{}, false, nil
		}
		if project.EntryFile != "" {
			u.Entry = types.Location(d.fsys.Resolve(dir, project.EntryFile))
		}
		u.ProjectFile = projectFile
		u.Deps = project.Deps
		if u.Identity, u.Source, err = d.identity(ctx, project, projectFile); err != nil {
			return Unit{}, false, err
		}
	}

	ok, err := vfs.IsFile(ctx, d.fsys, u.Entry.String())
	if err != nil || !ok {
		return Unit{}, false, err
	}
	return u, true, nil
}

func (d *DirectoryEnvironment) identity(ctx context.Context, project *manifest.Project, projectFile string) (types.Identity, IdentitySource, error) {
	if project.HasIdentity() {
		return project.Identity, IdentityDeclared, nil
	}
	canonical, err := d.fsys.Canonical(ctx, projectFile)
	if err != nil {
		return types.NilIdentity, IdentityNone, fmt.Errorf("canonicalize %s: %w", projectFile, err)
	}
	return PseudoIdentity(canonical), IdentityDerived, nil
}
