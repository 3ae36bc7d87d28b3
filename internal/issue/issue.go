// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/loadgraph/loadgraph/internal/dag"
	"github.com/loadgraph/loadgraph/pkg/environment"
	"github.com/loadgraph/loadgraph/pkg/manifest"
	"github.com/loadgraph/loadgraph/pkg/resolver"
)

const (
	UnknownImportId Id = iota + 1
	NoLoadPathId
	ParseErrorId
	ImportCycleId
	InvalidLoadPathId
	ConfigLoadFailedId
	LoaderFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render returns the issue's guidance formatted for the terminal using the
// glamour style at stylePath ("dark", "light", "notty", or a JSON file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if links := append(i.DocLinks(), i.extLinks...); len(links) > 0 {
		md += "\n\n## See also\n"
		for _, l := range links {
			md += "- <" + string(l) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	unknownImportIssue = &Issue{
		id: UnknownImportId,
		mdMsg: `
# Import not found

The name is not visible from the importing context. From the main context only
the roots of the load path are visible; from a package, only the dependencies
recorded for it in the first environment that knows it.

## Things you can try
- Inspect what each load-path entry provides:
~~~
$ loadgraph env
~~~
- Check that the importing package lists the name among its dependencies
  in the manifest of the environment that provides it.
- Put the environment that declares the dependency earlier on the load path.`,
		extLinks: []HttpLink{"https://pkgdocs.julialang.org/v1/toml-files/"},
	}

	noLoadPathIssue = &Issue{
		id: NoLoadPathId,
		mdMsg: `
# Package has no source location

The import resolved to an identity, but no environment on the load path knows
where its code lives, or the stored copy is missing from every depot.

## Things you can try
- List the storage roots in use:
~~~
$ loadgraph config show
~~~
- Make sure the content-addressed directory exists under one of them:
~~~
$ loadgraph slug <uuid> <git-tree-sha1>
~~~`,
	}

	parseErrorIssue = &Issue{
		id: ParseErrorId,
		mdMsg: `
# Malformed project or manifest file

A Project.toml or Manifest.toml could not be decoded. Nothing from that file
is used until it is fixed.

## Common causes
- A uuid that is not 36 characters of hex and dashes.
- A dependency array naming a package with several manifest entries.
- A stanza carrying both ` + "`path`" + ` and ` + "`git-tree-sha1`" + `.`,
		extLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	importCycleIssue = &Issue{
		id: ImportCycleId,
		mdMsg: `
# Import cycle

A package imports, directly or through its dependencies, a package that is
still being loaded on the same chain. Break the cycle in the dependency graph.

~~~
$ loadgraph graph --order
~~~`,
	}

	invalidLoadPathIssue = &Issue{
		id: InvalidLoadPathId,
		mdMsg: `
# Invalid load-path entry

Entries are "@" for the active project, "@<name>" for a named environment, or
a filesystem path. Empty entries are only meaningful inside
` + "`LOADGRAPH_LOAD_PATH`" + `, where they expand to the default list.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The CUE config file failed to parse or does not match the schema.

## Things you can try
- Print the effective configuration and its source:
~~~
$ loadgraph config show
~~~
- Write a fresh default file:
~~~
$ loadgraph config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	loaderFailedIssue = &Issue{
		id: LoaderFailedId,
		mdMsg: `
# Package failed to load

The source location was found but reading it was abandoned. Another attempt
may be made; failed loads are never cached.`,
	}

	issues = map[Id]*Issue{
		UnknownImportId:    unknownImportIssue,
		NoLoadPathId:       noLoadPathIssue,
		ParseErrorId:       parseErrorIssue,
		ImportCycleId:      importCycleIssue,
		InvalidLoadPathId:  invalidLoadPathIssue,
		ConfigLoadFailedId: configLoadFailedIssue,
		LoaderFailedId:     loaderFailedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, v := range issues {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForError returns the issue describing err, or nil when err is not a
// resolution failure the catalog covers.
func ForError(err error) *Issue {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resolver.ErrImportCycle), errors.Is(err, dag.ErrCycle):
		return issues[ImportCycleId]
	case errors.Is(err, resolver.ErrUnknownImport):
		return issues[UnknownImportId]
	case errors.Is(err, resolver.ErrNoLoadPath):
		return issues[NoLoadPathId]
	case errors.Is(err, manifest.ErrParse):
		return issues[ParseErrorId]
	case errors.Is(err, environment.ErrInvalidLoadPathEntry):
		return issues[InvalidLoadPathId]
	case errors.Is(err, resolver.ErrLoadAbandoned):
		return issues[LoaderFailedId]
	default:
		return nil
	}
}
