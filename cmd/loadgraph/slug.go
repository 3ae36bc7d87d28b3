// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loadgraph/loadgraph/pkg/contentaddr"
	"github.com/loadgraph/loadgraph/pkg/types"
)

func newSlugCommand(app *App, flags *globalFlags) *cobra.Command {
	var (
		file   string
		length int
	)
	c := &cobra.Command{
		Use:   "slug <uuid> [content-hash]",
		Short: "Print the storage slug of a package version",
		Long: `Print the storage slug of a package version, the directory name under
<depot>/packages/<name>/ that holds it.

The content hash is the git-tree-sha1 recorded in a manifest. With --file,
the hash of the file is computed instead using the configured algorithm.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			if (len(args) == 2) == (file != "") {
				return errors.New("give either a content hash or --file")
			}

			var hash types.ContentHash
			if len(args) == 2 {
				hash = types.ContentHash(args[1])
				if err := hash.Validate(); err != nil {
					return err
				}
			} else {
				cfg, err := app.loadConfig(cmd.Context(), flags)
				if err != nil {
					return app.report(err, flags.verbose)
				}
				fn, err := cfg.HashAlgorithm.Func()
				if err != nil {
					return err
				}
				p, err := filepath.Abs(file)
				if err != nil {
					return err
				}
				data, err := app.FS.ReadFile(cmd.Context(), p)
				if err != nil {
					return err
				}
				hash = fn(data)
			}

			fmt.Fprintln(app.stdout, contentaddr.SlugN(id, hash, length))
			return nil
		},
	}
	c.Flags().StringVar(&file, "file", "", "hash this file instead of taking a content hash")
	c.Flags().IntVar(&length, "length", contentaddr.SlugLength, "slug length")
	return c
}
