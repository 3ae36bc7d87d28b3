// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"maps"

	"github.com/loadgraph/loadgraph/pkg/types"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Project is a parsed project record. Every field is optional: a record
	// without name and uuid describes an anonymous project.
	Project struct {
		// Name is the project's own package name ("" when absent).
		Name types.PackageName
		// Identity is the project's uuid (the nil identity when absent).
		Identity types.Identity
		// Version is carried for display only.
		Version string
		// Deps maps the names of direct dependencies to their identities.
		Deps map[types.PackageName]types.Identity
		// EntryFile is an explicit entry-point path relative to the project
		// directory ("" selects src/<name><ext>).
		EntryFile string
		// ManifestFile overrides the manifest location, relative to the
		// project directory ("" selects the default manifest names).
		ManifestFile string
	}

	projectTOML struct {
		Name      string            `toml:"name"`
		UUID      string            `toml:"uuid"`
		Version   string            `toml:"version"`
		Deps      map[string]string `toml:"deps"`
		EntryFile string            `toml:"entryfile"`
		Path      string            `toml:"path"`
		Manifest  string            `toml:"manifest"`
	}
)

// HasIdentity reports whether the record declares a uuid.
func (p *Project) HasIdentity() bool { return !p.Identity.IsNil() }

// Dep returns the identity of the direct dependency called name.
func (p *Project) Dep(name types.PackageName) (types.Identity, bool) {
	id, ok := p.Deps[name]
	return id, ok
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Deps = maps.Clone(p.Deps)
	return &cp
}

// ParseProject parses a project record.
func ParseProject(raw []byte) (*Project, error) {
	var doc projectTOML
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, decodeError(err)
	}

	p := &Project{
		Version:      doc.Version,
		Deps:         make(map[types.PackageName]types.Identity, len(doc.Deps)),
		EntryFile:    doc.EntryFile,
		ManifestFile: doc.Manifest,
	}
	if p.EntryFile == "" {
		p.EntryFile = doc.Path
	}

	if doc.Name != "" {
		name := types.PackageName(doc.Name)
		if err := name.Validate(); err != nil {
			return nil, &ParseError{Field: "name", Cause: err}
		}
		p.Name = name
	}

	if doc.UUID != "" {
		id, err := types.ParseIdentity(doc.UUID)
		if err != nil {
			return nil, &ParseError{Field: "uuid", Cause: err}
		}
		p.Identity = id
	}

	for rawName, rawID := range doc.Deps {
		name := types.PackageName(rawName)
		if err := name.Validate(); err != nil {
			return nil, &ParseError{Field: "deps", Cause: err}
		}
		id, err := types.ParseIdentity(rawID)
		if err != nil {
			return nil, &ParseError{Field: "deps." + rawName, Cause: err}
		}
		p.Deps[name] = id
	}

	return p, nil
}

// decodeError converts a go-toml error into a ParseError with position.
func decodeError(err error) error {
	pe := &ParseError{Cause: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}
