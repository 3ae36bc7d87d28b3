// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/loadgraph/loadgraph/pkg/resolver"
	"github.com/loadgraph/loadgraph/pkg/types"
)

func newGraphCommand(app *App, flags *globalFlags) *cobra.Command {
	var (
		from  string
		order bool
	)
	c := &cobra.Command{
		Use:   "graph [name]...",
		Short: "Show the transitive import tree",
		Long: `Show the transitive import tree of the given names, or of every name
importable from the context when none are given.

Packages already shown higher up are marked (*) and not expanded again.
With --order, print the packages instead in an order in which each one
comes after everything it imports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := packageNames(args)
			if err != nil {
				return err
			}
			return app.withSession(cmd.Context(), flags, func(s *session) error {
				ctx := cmd.Context()
				ctxID, err := parseContext(ctx, s.resolver, from)
				if err != nil {
					return err
				}
				trees, err := s.resolver.Tree(ctx, ctxID, names)
				if err != nil {
					return err
				}

				if order {
					nodes, err := resolver.LoadOrder(trees)
					if err != nil {
						return err
					}
					for _, n := range nodes {
						fmt.Fprintln(app.stdout, nodeLabel(n))
					}
					return nil
				}

				label := "(main)"
				if !ctxID.IsNil() {
					label = ctxID.String()
				}
				t := gotree.New(label)
				for _, n := range trees {
					addNode(t, n)
				}
				fmt.Fprint(app.stdout, t.Print())
				return nil
			})
		},
	}
	c.Flags().StringVar(&from, "from", "", "importing package (name or uuid); default is the main context")
	c.Flags().BoolVar(&order, "order", false, "print a load order instead of a tree")
	return c
}

func addNode(parent gotree.Tree, n *resolver.Node) {
	label := nodeLabel(n)
	switch {
	case n.Repeated:
		label += " (*)"
	case n.Location == "":
		label += " " + WarningStyle.Render("(no location)")
	}
	t := parent.Add(label)
	for _, d := range n.Deps {
		addNode(t, d)
	}
}

func nodeLabel(n *resolver.Node) string {
	if n.Identity == types.NilIdentity {
		return n.Name.String()
	}
	return fmt.Sprintf("%s [%s]", n.Name, n.Identity)
}
