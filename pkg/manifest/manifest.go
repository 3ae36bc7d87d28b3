// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/loadgraph/loadgraph/pkg/types"

	"github.com/pelletier/go-toml/v2"
)

const (
	// FormatV1 is the implicit format of manifests without manifest_format.
	FormatV1 = "1.0"
	// FormatV2 is the current manifest format.
	FormatV2 = "2.0"
)

var (
	errNotTable       = errors.New("expected a table")
	errNotString      = errors.New("expected a string")
	errMissingUUID    = errors.New("missing uuid")
	errDuplicateUUID  = errors.New("uuid declared by more than one stanza")
	errUnknownDepName = errors.New("no stanza with this name")
	errAmbiguousDep   = errors.New("several stanzas share this name; use a name = uuid table")
)

type (
	// Stanza describes one package of the dependency graph.
	Stanza struct {
		// Name is the name the package is known by.
		Name types.PackageName
		// Identity is the package's uuid. Stanzas are keyed by it.
		Identity types.Identity
		// Version is carried for display only.
		Version string
		// Deps maps names imported by this package to identities.
		Deps map[types.PackageName]types.Identity
		// Path is an explicit location relative to the manifest's directory.
		Path string
		// ContentHash locates the package in a storage root when Path is empty.
		ContentHash types.ContentHash
	}

	// Manifest is a parsed manifest record.
	Manifest struct {
		// Format is the manifest_format value ("1.0" when absent).
		Format string

		stanzas    []Stanza
		byIdentity map[types.Identity]int
	}

	// pendingDeps records an array-form deps list, resolved by name once
	// every stanza is known.
	pendingDeps struct {
		stanza int
		field  string
		names  []types.PackageName
	}
)

// Stanza returns the stanza declaring id.
func (m *Manifest) Stanza(id types.Identity) (Stanza, bool) {
	i, ok := m.byIdentity[id]
	if !ok {
		return Stanza{}, false
	}
	return m.stanzas[i], true
}

// StanzasNamed returns every stanza called name, in file order.
func (m *Manifest) StanzasNamed(name types.PackageName) []Stanza {
	var out []Stanza
	for _, s := range m.stanzas {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Stanzas returns all stanzas ordered by name, then by position in the file.
func (m *Manifest) Stanzas() []Stanza {
	return slices.Clone(m.stanzas)
}

// Len returns the number of stanzas.
func (m *Manifest) Len() int { return len(m.stanzas) }

// ParseManifest parses a manifest record in format 1 or 2.
func ParseManifest(raw []byte) (*Manifest, error) {
	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, decodeError(err)
	}

	m := &Manifest{Format: FormatV1, byIdentity: make(map[types.Identity]int)}
	entries := doc
	strict := false

	if v, ok := doc["manifest_format"]; ok {
		format, ok := v.(string)
		if !ok {
			return nil, &ParseError{Field: "manifest_format", Cause: errNotString}
		}
		if !strings.HasPrefix(format, "2.") {
			return nil, &ParseError{Field: "manifest_format", Cause: fmt.Errorf("unsupported format %q", format)}
		}
		m.Format = format
		strict = true
		entries = map[string]any{}
		if deps, ok := doc["deps"]; ok {
			table, ok := deps.(map[string]any)
			if !ok {
				return nil, &ParseError{Field: "deps", Cause: errNotTable}
			}
			entries = table
		}
	}

	var pending []pendingDeps
	for _, key := range slices.Sorted(maps.Keys(entries)) {
		list, ok := entries[key].([]any)
		if !ok {
			if strict {
				return nil, &ParseError{Field: "deps." + key, Cause: errors.New("expected an array of tables")}
			}
			// Format 1 tolerates top-level scalars such as julia_version.
			continue
		}
		name := types.PackageName(key)
		if err := name.Validate(); err != nil {
			return nil, &ParseError{Field: key, Cause: err}
		}
		for i, item := range list {
			field := fmt.Sprintf("%s[%d]", key, i)
			if strict {
				field = "deps." + field
			}
			table, ok := item.(map[string]any)
			if !ok {
				return nil, &ParseError{Field: field, Cause: errNotTable}
			}
			stanza, names, err := parseStanza(name, table, field)
			if err != nil {
				return nil, err
			}
			if _, dup := m.byIdentity[stanza.Identity]; dup {
				return nil, &ParseError{Field: field + ".uuid", Cause: fmt.Errorf("%w: %s", errDuplicateUUID, stanza.Identity)}
			}
			m.byIdentity[stanza.Identity] = len(m.stanzas)
			m.stanzas = append(m.stanzas, stanza)
			if names != nil {
				pending = append(pending, pendingDeps{stanza: len(m.stanzas) - 1, field: field + ".deps", names: names})
			}
		}
	}

	for _, p := range pending {
		for _, depName := range p.names {
			named := m.StanzasNamed(depName)
			switch len(named) {
			case 0:
				return nil, &ParseError{Field: p.field, Cause: fmt.Errorf("%w: %s", errUnknownDepName, depName)}
			case 1:
				m.stanzas[p.stanza].Deps[depName] = named[0].Identity
			default:
				return nil, &ParseError{Field: p.field, Cause: fmt.Errorf("%w: %s", errAmbiguousDep, depName)}
			}
		}
	}

	return m, nil
}

// parseStanza decodes one stanza table. When deps is given as an array of
// names, the names are returned for later resolution.
func parseStanza(name types.PackageName, table map[string]any, field string) (Stanza, []types.PackageName, error) {
	s := Stanza{Name: name, Deps: make(map[types.PackageName]types.Identity)}

	rawUUID, ok := table["uuid"]
	if !ok {
		return s, nil, &ParseError{Field: field, Cause: errMissingUUID}
	}
	uuidText, ok := rawUUID.(string)
	if !ok {
		return s, nil, &ParseError{Field: field + ".uuid", Cause: errNotString}
	}
	id, err := types.ParseIdentity(uuidText)
	if err != nil {
		return s, nil, &ParseError{Field: field + ".uuid", Cause: err}
	}
	s.Identity = id

	if s.Version, err = optionalString(table, "version", field); err != nil {
		return s, nil, err
	}
	if s.Path, err = optionalString(table, "path", field); err != nil {
		return s, nil, err
	}
	hash, err := optionalString(table, "git-tree-sha1", field)
	if err != nil {
		return s, nil, err
	}
	if hash != "" {
		s.ContentHash = types.ContentHash(strings.ToLower(hash))
		if err := s.ContentHash.Validate(); err != nil {
			return s, nil, &ParseError{Field: field + ".git-tree-sha1", Cause: err}
		}
	}

	rawDeps, ok := table["deps"]
	if !ok {
		return s, nil, nil
	}
	switch deps := rawDeps.(type) {
	case map[string]any:
		for depName, v := range deps {
			text, ok := v.(string)
			if !ok {
				return s, nil, &ParseError{Field: field + ".deps." + depName, Cause: errNotString}
			}
			depID, err := types.ParseIdentity(text)
			if err != nil {
				return s, nil, &ParseError{Field: field + ".deps." + depName, Cause: err}
			}
			s.Deps[types.PackageName(depName)] = depID
		}
		return s, nil, nil
	case []any:
		names := make([]types.PackageName, 0, len(deps))
		for i, v := range deps {
			text, ok := v.(string)
			if !ok {
				return s, nil, &ParseError{Field: fmt.Sprintf("%s.deps[%d]", field, i), Cause: errNotString}
			}
			names = append(names, types.PackageName(text))
		}
		return s, names, nil
	default:
		return s, nil, &ParseError{Field: field + ".deps", Cause: errors.New("expected a table or an array of names")}
	}
}

func optionalString(table map[string]any, key, field string) (string, error) {
	v, ok := table[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Field: field + "." + key, Cause: errNotString}
	}
	return s, nil
}
