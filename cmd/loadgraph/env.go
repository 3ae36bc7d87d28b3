// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loadgraph/loadgraph/pkg/types"
)

// envRow describes one environment of the stack.
type envRow struct {
	Index int      `json:"index" yaml:"index"`
	Kind  string   `json:"kind" yaml:"kind"`
	Path  string   `json:"path" yaml:"path"`
	Roots []string `json:"roots" yaml:"roots"`
}

func newEnvCommand(app *App, flags *globalFlags) *cobra.Command {
	format := newOutputFormat("table", "table", "yaml", "json")
	c := &cobra.Command{
		Use:   "env",
		Short: "List the environments on the load path in precedence order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withSession(cmd.Context(), flags, func(s *session) error {
				envs := s.stack.Environments()
				rows := make([]envRow, 0, len(envs))
				for i, e := range envs {
					roots, err := e.Deps(cmd.Context(), types.NilIdentity)
					if err != nil {
						return err
					}
					d := e.Describe()
					rows = append(rows, envRow{
						Index: i + 1,
						Kind:  d.Kind.String(),
						Path:  d.Path,
						Roots: sortedNames(roots),
					})
				}

				switch format.String() {
				case "yaml":
					enc := yaml.NewEncoder(app.stdout)
					enc.SetIndent(2)
					if err := enc.Encode(rows); err != nil {
						return err
					}
					return enc.Close()
				case "json":
					enc := json.NewEncoder(app.stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(rows)
				default:
					if len(rows) == 0 {
						fmt.Fprintln(app.stdout, SubtitleStyle.Render("(load path is empty)"))
						return nil
					}
					table := tablewriter.NewWriter(app.stdout)
					table.SetHeader([]string{"#", "Kind", "Path", "Roots"})
					table.SetBorder(false)
					table.SetAutoWrapText(false)
					for _, r := range rows {
						table.Append([]string{strconv.Itoa(r.Index), r.Kind, r.Path, strings.Join(r.Roots, ", ")})
					}
					table.Render()
					return nil
				}
			})
		},
	}
	addFormatFlag(c.Flags(), format)
	return c
}

func sortedNames(m map[types.PackageName]types.Identity) []string {
	names := make([]string, 0, len(m))
	for _, n := range slices.Sorted(maps.Keys(m)) {
		names = append(names, n.String())
	}
	return names
}
