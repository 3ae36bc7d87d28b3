// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"maps"
	"slices"

	"github.com/loadgraph/loadgraph/internal/dag"
	"github.com/loadgraph/loadgraph/pkg/types"
)

// Node is one package of a dependency tree.
type Node struct {
	Name     types.PackageName
	Identity types.Identity
	// Location is the package's entry point, or "" when it has none.
	Location types.Location
	// Deps are the packages this one imports, sorted by name.
	Deps []*Node
	// Repeated marks a package expanded earlier in the tree; its Deps are
	// left empty.
	Repeated bool
}

// ID returns the node's cache key.
func (n *Node) ID() PackageID { return NewPackageID(n.Identity, n.Name) }

// Tree resolves names from the package from and expands their transitive
// dependencies. With no names, every name importable from from is used.
// Unknown imports among names are errors; packages without a location are
// reported with an empty Location.
func (r *Resolver) Tree(ctx context.Context, from types.Identity, names []types.PackageName) ([]*Node, error) {
	if len(names) == 0 {
		deps, err := r.env.Deps(ctx, from)
		if err != nil {
			return nil, err
		}
		names = slices.Sorted(maps.Keys(deps))
	}

	visited := make(map[PackageID]bool)
	roots := make([]*Node, 0, len(names))
	for _, name := range names {
		id, err := r.Resolve(ctx, from, name)
		if err != nil {
			return nil, err
		}
		n := &Node{Name: name, Identity: id}
		if err := r.expand(ctx, n, visited); err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	return roots, nil
}

func (r *Resolver) expand(ctx context.Context, n *Node, visited map[PackageID]bool) error {
	loc, found, err := r.env.Path(ctx, n.Identity, n.Name)
	if err != nil {
		return err
	}
	if found {
		n.Location = loc
	}
	if visited[n.ID()] {
		n.Repeated = true
		return nil
	}
	visited[n.ID()] = true

	// A package without identity imports from the main context, which is
	// not a dependency of its own.
	if n.Identity.IsNil() {
		return nil
	}
	deps, err := r.env.Deps(ctx, n.Identity)
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		child := &Node{Name: name, Identity: deps[name]}
		if err := r.expand(ctx, child, visited); err != nil {
			return err
		}
		n.Deps = append(n.Deps, child)
	}
	return nil
}

// LoadOrder flattens trees into an order in which every package follows
// its dependencies. Cyclic dependencies return a *dag.CycleError.
func LoadOrder(trees []*Node) ([]*Node, error) {
	g := dag.New[PackageID]()
	nodes := make(map[PackageID]*Node)

	var walk func(n *Node)
	walk = func(n *Node) {
		g.AddNode(n.ID())
		if _, ok := nodes[n.ID()]; !ok || !n.Repeated {
			nodes[n.ID()] = n
		}
		for _, dep := range n.Deps {
			g.AddEdge(dep.ID(), n.ID())
			walk(dep)
		}
	}
	for _, n := range trees {
		walk(n)
	}

	ids, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	order := make([]*Node, len(ids))
	for i, id := range ids {
		order[i] = nodes[id]
	}
	return order, nil
}
