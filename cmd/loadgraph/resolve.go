// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loadgraph/loadgraph/internal/loader"
	"github.com/loadgraph/loadgraph/pkg/types"
)

func newResolveCommand(app *App, flags *globalFlags) *cobra.Command {
	var from string
	c := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Print the identity each name denotes in the importing context",
		Args:  cobra.MinimumNArgs(1),
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
				for _, name := range names {
					id, err := s.resolver.Resolve(ctx, ctxID, name)
					if err != nil {
						return err
					}
					fmt.Fprintf(app.stdout, "%s %s\n", KeyStyle.Render(name.String()), SuccessStyle.Render(id.String()))
				}
				return nil
			})
		},
	}
	c.Flags().StringVar(&from, "from", "", "importing package (name or uuid); default is the main context")
	return c
}

func newLocateCommand(app *App, flags *globalFlags) *cobra.Command {
	var from string
	c := &cobra.Command{
		Use:   "locate <name>",
		Short: "Print the entry-point file of the package a name denotes",
		Args:  cobra.ExactArgs(1),
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
				id, err := s.resolver.Resolve(ctx, ctxID, names[0])
				if err != nil {
					return err
				}
				loc, err := s.resolver.Locate(ctx, id, names[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, loc)
				return nil
			})
		},
	}
	c.Flags().StringVar(&from, "from", "", "importing package (name or uuid); default is the main context")
	return c
}

func newLoadCommand(app *App, flags *globalFlags) *cobra.Command {
	var from string
	c := &cobra.Command{
		Use:   "load <name>...",
		Short: "Load packages and everything they import",
		Long: `Load packages and everything they import.

Each package's entry file is read and fingerprinted once, however many
times it is imported. The packages named on the command line are loaded
concurrently.`,
		Args: cobra.MinimumNArgs(1),
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
				if _, err := s.resolver.LoadAll(ctx, ctxID, names); err != nil {
					return err
				}

				cache := s.resolver.Cache()
				loaded := cache.Loaded()
				for _, key := range loaded {
					h, _ := cache.Get(key)
					src, ok := h.(*loader.Source)
					if !ok {
						continue
					}
					fmt.Fprintf(app.stdout, "%s %s %s\n",
						KeyStyle.Render(key.String()), src.Location, SubtitleStyle.Render(shortHash(src.Hash)))
				}
				fmt.Fprintln(app.stdout, SuccessStyle.Render(fmt.Sprintf("loaded %d packages", len(loaded))))
				return nil
			})
		},
	}
	c.Flags().StringVar(&from, "from", "", "importing package (name or uuid); default is the main context")
	return c
}

func shortHash(h types.ContentHash) string {
	if s := h.String(); len(s) > 12 {
		return s[:12]
	}
	return h.String()
}
